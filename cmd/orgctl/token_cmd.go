package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/org-hierarchy/internal/auth"
	"github.com/spec-kit/org-hierarchy/internal/config"
)

func newTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		roles  []string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with AUTH_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return withCode(exitUsage, err)
			}
			parsed := make([]auth.Role, 0, len(roles))
			for _, r := range roles {
				role := auth.Role(strings.ToLower(strings.TrimSpace(r)))
				switch role {
				case auth.RoleAdmin, auth.RoleHR, auth.RoleMember:
					parsed = append(parsed, role)
				default:
					return withCode(exitUsage, fmt.Errorf("unknown role %q", r))
				}
			}
			tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
			token, expiresAt, err := tokens.GenerateToken(userID, email, parsed)
			if err != nil {
				return withCode(exitUsage, err)
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"token": token, "expires_at": expiresAt})
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "User id placed in the token subject (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringSliceVar(&roles, "role", []string{string(auth.RoleMember)}, "Roles: admin, hr, member")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
