package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	appModels "github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/db"
)

// staffMember is one seeded directory entry
type staffMember struct {
	Email     string
	FirstName string
	LastName  string
	Role      appModels.RoleType
	Hub       string
}

// DefaultStaff are the development accounts. Mint tokens for them with `hubtc-chat token --user N`.
var DefaultStaff = []staffMember{
	{Email: "ayse.kaya@hubtc.travel", FirstName: "Ayse", LastName: "Kaya", Role: appModels.RoleHubLead, Hub: "Antalya"},
	{Email: "mehmet.demir@hubtc.travel", FirstName: "Mehmet", LastName: "Demir", Role: appModels.RoleEmployee, Hub: "Antalya"},
	{Email: "elif.sahin@hubtc.travel", FirstName: "Elif", LastName: "Sahin", Role: appModels.RoleEmployee, Hub: "Istanbul"},
	{Email: "portal.admin@hubtc.travel", FirstName: "Portal", LastName: "Admin", Role: appModels.RoleAdmin, Hub: "Istanbul"},
}

// DefaultGroupName is the group conversation every seeded staff member joins
const DefaultGroupName = "Antalya Transfers"

// CreateDefaultData creates the development staff and their group conversation
// if they don't exist. Running it again changes nothing.
func CreateDefaultData(ctx context.Context, database *db.PostgresDB, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (staff, group conversation)...")

	return database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		ids := make([]int64, 0, len(DefaultStaff))
		for _, member := range DefaultStaff {
			id, err := upsertStaff(ctx, tx, member)
			if err != nil {
				lgr.Error().Err(err).Str("email", member.Email).Msg("Error creating staff member")
				return err
			}
			ids = append(ids, id)
		}

		var groupID int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM conversations WHERE is_group AND name = $1 ORDER BY id LIMIT 1`,
			DefaultGroupName).Scan(&groupID)
		if err == nil {
			lgr.Debug().Int64("conversationID", groupID).Msg("Default group conversation already exists")
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("error looking up default group: %w", err)
		}

		if err := tx.QueryRow(ctx,
			`INSERT INTO conversations (is_group, name, created_by) VALUES (TRUE, $1, $2) RETURNING id`,
			DefaultGroupName, ids[0]).Scan(&groupID); err != nil {
			return fmt.Errorf("error creating default group: %w", err)
		}

		for _, id := range ids {
			if _, err := tx.Exec(ctx,
				`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				groupID, id); err != nil {
				return fmt.Errorf("error adding participant %d: %w", id, err)
			}
		}

		lgr.Info().Int64("conversationID", groupID).Int("participants", len(ids)).Msg("Default group conversation created")
		return nil
	})
}

func upsertStaff(ctx context.Context, tx pgx.Tx, member staffMember) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO users (email, first_name, last_name, role_type, hub_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id`,
		member.Email, member.FirstName, member.LastName, string(member.Role), member.Hub,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error upserting staff member: %w", err)
	}
	return id, nil
}
