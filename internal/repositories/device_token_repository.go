package repositories

import (
	"context"
	"database/sql"

	"webomat/internal/models"
)

type DeviceTokenRepository struct {
	DB *sql.DB
}

// DeviceTokens returns the push targets of a user, newest first.
func (r *DeviceTokenRepository) DeviceTokens(ctx context.Context, userID string) ([]models.DeviceToken, error) {
	query := `
SELECT user_id, token, platform, updated_at
FROM device_tokens
WHERE user_id = $1 AND token <> ''
ORDER BY updated_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []models.DeviceToken{}
	for rows.Next() {
		var t models.DeviceToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.Platform, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// SellerUserID resolves the user account behind a seller.
func (r *DeviceTokenRepository) SellerUserID(ctx context.Context, sellerID string) (string, error) {
	var userID string
	err := r.DB.QueryRowContext(ctx, `SELECT user_id FROM sellers WHERE id = $1`, sellerID).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", models.ErrNoRecord
	}
	return userID, err
}

// DeleteDeviceToken drops a token the push provider reported as invalid.
func (r *DeviceTokenRepository) DeleteDeviceToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM device_tokens WHERE token = $1`, token)
	return err
}
