package database

import (
	"fmt"
	"log"

	config "github.com/anjiri1684/tpq_payments/configs"
	"github.com/anjiri1684/tpq_payments/models"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	if err := AutoMigrate(DB); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

// AutoMigrate is shared with the sqlite test databases.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.OrderAuditEvent{},
		&models.SppRecord{},
		&models.Donation{},
		&models.FinancialAccount{},
		&models.Transaction{},
	)
}

func SeedAdmin() {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️ ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed.")
		return
	}

	var count int64
	if err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error; err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
	}
	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
	}

	adminUser := models.User{
		FullName: config.ConfigDefault("ADMIN_FULL_NAME", "Administrator TPQ"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     "admin",
	}
	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
	}

	log.Println("✅ Admin user seeded successfully")
}

// SeedDefaultCashAccount makes sure approvals have a ledger account to post into.
func SeedDefaultCashAccount(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.FinancialAccount{}).Where("is_default = ? AND type = ?", true, models.AccountTypeCash).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	account := models.FinancialAccount{
		Name:      config.ConfigDefault("DEFAULT_CASH_ACCOUNT_NAME", "Kas Utama"),
		Type:      models.AccountTypeCash,
		Balance:   decimal.Zero,
		IsDefault: true,
	}
	if err := db.Create(&account).Error; err != nil {
		return err
	}
	log.Printf("✅ Default cash account %q created", account.Name)
	return nil
}
