package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		if clearData {
			for _, table := range []string{"memo_reads", "memos", "permit_documents", "permits", "permit_sequences", "users", "shops"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		staff := []struct {
			Email string
			Name  string
			Role  string
		}{
			{"admin@mall.local", "Mall Admin", "admin"},
			{"operations@mall.local", "Operations Manager", "operations"},
			{"technical@mall.local", "Technical Reviewer", "technical"},
			{"security@mall.local", "Security Officer", "security"},
		}

		for _, u := range staff {
			var exists int
			if err := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row().Scan(&exists); err == nil {
				fmt.Println("user already exists, skipping:", u.Email)
				continue
			}

			if err := db.Exec(
				"INSERT INTO users (email, name, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
				u.Email, u.Name, string(hash), u.Role,
			).Error; err != nil {
				log.Fatalf("failed to insert %s user: %v", u.Role, err)
			}
			fmt.Println("Seeded user:", u.Email)
		}

		seedDemoShop(db, string(hash))

		fmt.Println("Seeding complete. All accounts use password:", password)
	},
}

// seedDemoShop creates one shop with its paired tenant login so the permit
// flow can be exercised end to end out of the box.
func seedDemoShop(db *gorm.DB, passwordHash string) {
	shopNumber := "A-101"

	var shopID int64
	if err := db.Raw("SELECT id FROM shops WHERE shop_number = ?", shopNumber).Row().Scan(&shopID); err != nil {
		if err := db.Exec(
			"INSERT INTO shops (name, shop_number, floor, system_email, contact_name, contact_phone, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, 'active', now(), now())",
			"Demo Coffee House", shopNumber, "1", "shop.a101@mall.local", "Demo Tenant", "+60000000000",
		).Error; err != nil {
			log.Fatalf("failed to insert demo shop: %v", err)
		}
		if err := db.Raw("SELECT id FROM shops WHERE shop_number = ?", shopNumber).Row().Scan(&shopID); err != nil {
			log.Fatalf("failed to look up demo shop id: %v", err)
		}
		fmt.Println("Seeded demo shop:", shopNumber)
	} else {
		fmt.Println("demo shop already exists, skipping:", shopNumber)
	}

	tenantEmail := "shop.a101@mall.local"
	var exists int
	if err := db.Raw("SELECT 1 FROM users WHERE email = ?", tenantEmail).Row().Scan(&exists); err == nil {
		fmt.Println("tenant user already exists, skipping:", tenantEmail)
		return
	}

	if err := db.Exec(
		"INSERT INTO users (email, name, password_hash, role, shop_id, is_active, created_at, updated_at) VALUES (?, ?, ?, 'tenant', ?, true, now(), now())",
		tenantEmail, "Demo Coffee House", passwordHash, shopID,
	).Error; err != nil {
		log.Fatalf("failed to insert tenant user: %v", err)
	}
	fmt.Println("Seeded tenant user:", tenantEmail)
}
