package db

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// Cookie is one persisted cookie, stored under the host it was received from.
type Cookie struct {
	Host      string `gorm:"primaryKey"`
	Name      string `gorm:"primaryKey"`
	Value     string
	Domain    string
	Path      string
	ExpiresAt sql.NullTime
	Secure    bool
	HttpOnly  bool
}

// GetCookies returns every stored cookie, grouped by host.
func (db *DB) GetCookies() (map[string][]Cookie, error) {
	var rows []Cookie
	if err := db.Order("host, name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error reading cookies: %w", err)
	}
	byHost := map[string][]Cookie{}
	for _, row := range rows {
		byHost[row.Host] = append(byHost[row.Host], row)
	}
	return byHost, nil
}

// ReplaceCookies replaces every cookie stored for host with the given list.
func (db *DB) ReplaceCookies(host string, cookies []Cookie) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("host = ?", host).
			Delete(&Cookie{}).
			Error; err != nil {
			return fmt.Errorf("error deleting cookies for '%s': %w", host, err)
		}
		if len(cookies) == 0 {
			return nil
		}
		for i := range cookies {
			cookies[i].Host = host
		}
		if err := tx.Create(&cookies).Error; err != nil {
			return fmt.Errorf("error inserting %d cookies for '%s': %w", len(cookies), host, err)
		}
		return nil
	})
}
