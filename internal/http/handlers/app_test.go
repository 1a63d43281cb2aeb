package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"fundhub/internal/chain"
	"fundhub/internal/domain"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("load: %w", domain.ErrNotFound), http.StatusNotFound},
		{&domain.TransitionError{Trigger: domain.TriggerAccept, From: domain.MilestoneStatusPaid, Reason: "no"}, http.StatusConflict},
		{domain.ErrUnknownTransaction, http.StatusConflict},
		{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{domain.ErrNoEligibleDonations, http.StatusUnprocessableEntity},
		{domain.ErrTokenMismatch, http.StatusUnprocessableEntity},
		{domain.ErrInvalidAmount, http.StatusBadRequest},
		{domain.ErrInvalidConfirmations, http.StatusBadRequest},
		{domain.ErrInvalidRecord, http.StatusBadRequest},
		{&chain.Error{Op: "delegate", StatusCode: 503}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, _ := statusFor(tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestFeedOriginPatterns(t *testing.T) {
	got := FeedOriginPatterns([]string{"http://localhost:3010", "https://app.example.org", "*", "::bad"})
	assert.Equal(t, []string{"localhost:3010", "app.example.org", "*"}, got)
}
