package database

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xxz807/sgbooks/backend/internal/ledger/domain"
)

// NewPostgresDB 初始化数据库连接
// 在 DDD 中，它属于 Infrastructure 层
func NewPostgresDB(dsn string, maxIdleConns int, maxOpenConns int) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// 开启 SQL 日志，方便开发时观察
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("❌ Failed to get sql.DB: %v", err)
	}

	// 连接池配置
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 账本表迁移（初始科目表由外部引导脚本灌入，这里只建结构）
	if err := db.AutoMigrate(
		&domain.Account{},
		&domain.Transaction{},
		&domain.TransactionLine{},
	); err != nil {
		log.Fatalf("❌ Failed to migrate ledger schema: %v", err)
	}

	log.Println("✅ Database connection established")
	return db
}
