package interests

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	t.Helper()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "simple", input: "donuts"},
		{name: "all allowed punctuation", input: "a_b-c=d@e,f.g;h"},
		{name: "digits and case", input: "ABCxyz0129"},
		{name: "exactly max length", input: strings.Repeat("a", MaxNameLength)},
		{name: "one over max length", input: strings.Repeat("a", MaxNameLength+1), wantErr: ErrNameTooLong},
		{name: "empty", input: "", wantErr: ErrNameRequired},
		{name: "pipe", input: "bad|interest", wantErr: ErrForbiddenCharacter},
		{name: "space", input: "bad interest", wantErr: ErrForbiddenCharacter},
		{name: "non ascii", input: "café", wantErr: ErrForbiddenCharacter},
		{name: "slash", input: "a/b", wantErr: ErrForbiddenCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateName() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateName() error = %v, want %v", err, tt.wantErr)
			}
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("ValidateName() error type = %T, want *ValidationError", err)
			}
		})
	}
}

func TestForbiddenCharacterMessageNamesInterest(t *testing.T) {
	err := ValidateName("bad|interest")
	if err == nil || !strings.Contains(err.Error(), `"bad|interest" contains a forbidden character`) {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestNormalizeDeduplicatesInOrder(t *testing.T) {
	got, err := Normalize([]string{"b", "a", "b", "c", "a"})
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if want := []string{"b", "a", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Normalize() = %v, want %v", got, want)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	got, err := Normalize(nil)
	if err != nil {
		t.Fatalf("Normalize(nil) error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("Normalize(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestNormalizeSizeBoundaries(t *testing.T) {
	atLimit := numbered(MaxInterests)
	got, err := Normalize(atLimit)
	if err != nil {
		t.Fatalf("Normalize(%d) error: %v", MaxInterests, err)
	}
	if len(got) != MaxInterests {
		t.Fatalf("len = %d, want %d", len(got), MaxInterests)
	}

	if _, err := Normalize(numbered(MaxInterests + 1)); !errors.Is(err, ErrTooManyInterests) {
		t.Fatalf("Normalize(%d) error = %v, want ErrTooManyInterests", MaxInterests+1, err)
	}

	withDuplicates := append(numbered(MaxInterests), "interest-0")
	if _, err := Normalize(withDuplicates); err != nil {
		t.Fatalf("Normalize() with duplicate over raw limit error: %v", err)
	}
}

func TestNormalizeRejectsInvalidMember(t *testing.T) {
	if _, err := Normalize([]string{"ok", "not ok"}); !errors.Is(err, ErrForbiddenCharacter) {
		t.Fatalf("Normalize() error = %v, want ErrForbiddenCharacter", err)
	}
}

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("interest-%d", i)
	}
	return out
}
