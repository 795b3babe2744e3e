// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package backend

import (
	"errors"
	"fmt"
	"testing"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "boom"},
		{"backend error", Errorf("sign_in", ErrInvalidCredentials, "Invalid login credentials"), "Invalid login credentials"},
		{"wrapped backend error", fmt.Errorf("login: %w", Errorf("sign_in", ErrInvalidCredentials, "Invalid login credentials")), "Invalid login credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.err); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("vote: %w", Errorf("vote_on_poll", ErrAlreadyVoted, "You have already voted on this poll"))

	if !errors.Is(err, ErrAlreadyVoted) {
		t.Error("Expected errors.Is to match ErrAlreadyVoted")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Did not expect errors.Is to match ErrNotFound")
	}
	if got := err.Error(); got != "vote: vote_on_poll: You have already voted on this poll" {
		t.Errorf("Unexpected error text: %s", got)
	}
}
