package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

var tables = []struct {
	name  string
	query string
}{
	{"menu_items", `
		CREATE TABLE IF NOT EXISTS menu_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NULL,
			price DECIMAL(10,2) NOT NULL,
			image_url VARCHAR(1024) NULL,
			category VARCHAR(100) NOT NULL,
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`},
	{"profiles", `
		CREATE TABLE IF NOT EXISTS profiles (
			id VARCHAR(64) PRIMARY KEY,
			full_name VARCHAR(255) NULL,
			points BIGINT NOT NULL DEFAULT 0,
			CHECK (points >= 0)
		);
	`},
	{"admins", `
		CREATE TABLE IF NOT EXISTS admins (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL
		);
	`},
	{"orders", `
		CREATE TABLE IF NOT EXISTS orders (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_token CHAR(36) NOT NULL UNIQUE,
			user_id VARCHAR(64) NULL,
			user_email VARCHAR(255) NOT NULL,
			total_amount DECIMAL(10,2) NOT NULL,
			status VARCHAR(20) NOT NULL,
			payment_method VARCHAR(20) NOT NULL,
			payment_status VARCHAR(20) NOT NULL,
			points_redeemed BIGINT NOT NULL DEFAULT 0,
			points_earned BIGINT NULL,
			scheduled_for DATE NULL,
			created_at DATETIME NOT NULL,
			INDEX idx_orders_scheduled_for (scheduled_for),
			INDEX idx_orders_user_id (user_id),
			INDEX idx_orders_created_at (created_at)
		);
	`},
	{"order_items", `
		CREATE TABLE IF NOT EXISTS order_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			menu_item_id BIGINT NOT NULL,
			quantity INT NOT NULL,
			price_at_time DECIMAL(10,2) NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		);
	`},
}

// AutoMigrate creates every storefront table that does not exist yet, in
// dependency order.
func AutoMigrate(retries int, db *sql.DB) error {
	for _, t := range tables {
		_, err := db.Exec(t.query)
		if err != nil {
			// Retry creating the table
			for i := 0; i < retries; i++ {
				time.Sleep(1 * time.Second)
				_, err = db.Exec(t.query)
				if err == nil {
					break
				}
			}
		}
		if err != nil {
			return fmt.Errorf("migrate %s: %w", t.name, err)
		}
	}
	return nil
}
