package db

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"
)

// Token is one persisted session credential.
type Token struct {
	Kind      string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// GetTokens returns every stored token, keyed by kind.
func (db *DB) GetTokens() (map[string]string, error) {
	var rows []Token
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error reading tokens: %w", err)
	}
	tokens := make(map[string]string, len(rows))
	for _, row := range rows {
		tokens[row.Kind] = row.Value
	}
	return tokens, nil
}

// SetToken stores the token of the given kind, replacing any previous value.
func (db *DB) SetToken(kind, value string) error {
	if kind == "" {
		return fmt.Errorf("no token kind")
	}
	if err := db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&Token{Kind: kind, Value: value, UpdatedAt: time.Now()}).
		Error; err != nil {
		return fmt.Errorf("error storing token '%s': %w", kind, err)
	}
	return nil
}

// DeleteToken removes the token of the given kind, if there is one.
func (db *DB) DeleteToken(kind string) error {
	if err := db.
		Where("kind = ?", kind).
		Delete(&Token{}).
		Error; err != nil {
		return fmt.Errorf("error deleting token '%s': %w", kind, err)
	}
	return nil
}

// ClearTokens removes every stored token.
func (db *DB) ClearTokens() error {
	if err := db.
		Where("1 = 1").
		Delete(&Token{}).
		Error; err != nil {
		return fmt.Errorf("error clearing tokens: %w", err)
	}
	return nil
}
