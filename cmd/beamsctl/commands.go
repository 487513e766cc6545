package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/pushbeams/beams-device/internal/model"
	"github.com/pushbeams/beams-device/internal/worker"
)

func printJSON(cmd *cli.Command, v any) error {
	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withSession opens a session for one command and closes it afterwards.
func withSession(fn func(ctx context.Context, cmd *cli.Command, s *session) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(ctx, cmd, s)
	}
}

var runStart = withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
	identity, err := s.client.Start(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd, identity)
})

var runStop = withSession(func(ctx context.Context, _ *cli.Command, s *session) error {
	return s.client.Stop(ctx)
})

var runClear = withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
	identity, err := s.client.ClearAllState(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd, identity)
})

var runState = withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
	state, err := s.client.RegistrationState(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, state)
	return err
})

var runWhoami = withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
	identity, err := s.client.Identity(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd, identity)
})

var runSetUser = withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("set-user takes exactly one user id")
	}
	return s.client.SetUserID(ctx, cmd.Args().First(), s.tokenProvider())
})

func runPermission(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("permission takes exactly one of granted, denied or default")
	}
	permission, err := model.ParsePermission(cmd.Args().First())
	if err != nil {
		return err
	}
	s, err := openManager(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.manager.SetPermission(ctx, permission)
}

func runListen(ctx context.Context, cmd *cli.Command) error {
	s, err := openManager(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	sub, err := s.manager.GetSubscription(ctx)
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("no push subscription; run start first")
	}

	out := cmd.Root().Writer
	w := worker.NewContext(worker.Config{Logger: s.logger}, worker.Callbacks{
		Display: func(_ context.Context, n worker.Notification) error {
			_, err := fmt.Fprintf(out, "%s: %s\n", n.Title, n.Body)
			return err
		},
		OpenWindow: func(_ context.Context, url string) error {
			_, err := fmt.Fprintf(out, "  -> %s\n", url)
			return err
		},
	})
	listener := worker.NewListener(w, sub.Endpoint)
	if cmd.Bool(OpenFlag) {
		listener.OnNotification = func(n worker.Notification) {
			if _, err := w.HandleNotificationClick(ctx, n); err != nil {
				s.logger.Warn("notification click failed", "err", err)
			}
		}
	}
	listener.Run(ctx)
	return nil
}

var runInterestsList = withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
	names, err := s.client.GetDeviceInterests(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(cmd.Root().Writer, name); err != nil {
			return err
		}
	}
	return nil
})

var runInterestsAdd = withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
	for _, name := range cmd.Args().Slice() {
		if err := s.client.AddDeviceInterest(ctx, name); err != nil {
			return err
		}
	}
	return nil
})

var runInterestsRemove = withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
	for _, name := range cmd.Args().Slice() {
		if err := s.client.RemoveDeviceInterest(ctx, name); err != nil {
			return err
		}
	}
	return nil
})

var runInterestsSet = withSession(func(ctx context.Context, cmd *cli.Command, s *session) error {
	return s.client.SetDeviceInterests(ctx, cmd.Args().Slice())
})

var runInterestsClear = withSession(func(ctx context.Context, _ *cli.Command, s *session) error {
	return s.client.ClearDeviceInterests(ctx)
})
