package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var exportHeader = []string{
	"username",
	"email",
	"date_of_birth",
	"consent",
	"age",
	"id",
	"first_name",
	"last_name",
	"date_joined",
	"last_login",
}

// ExportUser renders the user's personal data as a single-record CSV document.
func (s *userService) ExportUser(ctx context.Context, actorID, userID uuid.UUID) ([]byte, error) {
	user, err := s.findSelf(ctx, actorID, userID)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(user)

	row := []string{
		resp.Username,
		resp.Email,
		"",
		strconv.FormatBool(resp.Consent),
		"",
		resp.ID.String(),
		resp.FirstName,
		resp.LastName,
		resp.DateJoined.UTC().Format(time.RFC3339),
		"",
	}
	if resp.DateOfBirth != nil {
		row[2] = *resp.DateOfBirth
	}
	if resp.Age != nil {
		row[4] = strconv.Itoa(*resp.Age)
	}
	if resp.LastLogin != nil {
		row[9] = resp.LastLogin.UTC().Format(time.RFC3339)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll([][]string{exportHeader, row}); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}

	return buf.Bytes(), nil
}
