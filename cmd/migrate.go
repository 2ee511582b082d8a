package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/anoixa/image-api/config"
	"github.com/anoixa/image-api/database"
	"github.com/anoixa/image-api/database/models"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// migrateCmd 迁移当前配置数据库的表结构
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tools",
	Long: `Auto-migrate the schema of the configured database.
Use "migrate run" to copy image records from one database to another.`,
	Run: func(cmd *cobra.Command, args []string) {
		config.InitConfig()
		factory, err := database.NewFactory(config.Get())
		if err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		defer factory.Close()

		if err := factory.AutoMigrate(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

// migrateRunCmd 在数据库之间复制图片记录
var migrateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Copy image records between databases",
	Long: `Copy image records from a source database to a target database.

Examples:
  # Migrate from SQLite to PostgreSQL
  image-api migrate run --from-sqlite ./data/images.db --to-postgres "host=localhost user=postgres password=secret dbname=images port=5432"

  # Replace records that already exist in the target
  image-api migrate run --from-sqlite ./data/images.db --to-postgres "..." --on-conflict=overwrite`,
	Run: func(cmd *cobra.Command, args []string) {
		fromType, _ := cmd.Flags().GetString("from-type")
		toType, _ := cmd.Flags().GetString("to-type")
		fromDSN, _ := cmd.Flags().GetString("from-dsn")
		toDSN, _ := cmd.Flags().GetString("to-dsn")
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		if fromSQLite != "" {
			fromType, fromDSN = "sqlite", fromSQLite
		}
		if toPostgres != "" {
			toType, toDSN = "postgres", toPostgres
		}

		if err := runMigration(fromType, fromDSN, toType, toDSN, batchSize, onConflict); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateRunCmd)

	migrateRunCmd.Flags().String("from-type", "", "Source database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("to-type", "", "Target database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("from-dsn", "", "Source database DSN/connection string")
	migrateRunCmd.Flags().String("to-dsn", "", "Target database DSN/connection string")
	migrateRunCmd.Flags().String("from-sqlite", "", "Source SQLite file path (shortcut)")
	migrateRunCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string (shortcut)")
	migrateRunCmd.Flags().Int("batch-size", 100, "Batch size for data migration")
	migrateRunCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), overwrite, error")
}

// migrateStats 迁移统计
type migrateStats struct {
	copied      int
	skipped     int
	overwritten int
}

// runMigration 执行数据库迁移
func runMigration(fromType, fromDSN, toType, toDSN string, batchSize int, onConflict string) error {
	if fromType == "" || toType == "" {
		return errors.New("both --from-type and --to-type are required")
	}
	if fromDSN == "" || toDSN == "" {
		return errors.New("both --from-dsn and --to-dsn (or shortcuts) are required")
	}
	if fromType == toType && fromDSN == toDSN {
		return errors.New("source and target databases are the same")
	}

	log.Printf("Migrating from %s to %s", fromType, toType)
	log.Printf("Source: %s", maskDSN(fromDSN))
	log.Printf("Target: %s", maskDSN(toDSN))

	sourceDB, err := openDatabase(fromType, fromDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer closeDatabase(sourceDB)

	targetDB, err := openDatabase(toType, toDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	defer closeDatabase(targetDB)

	ctx := context.Background()
	if err := targetDB.WithContext(ctx).AutoMigrate(&models.Image{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	stats, err := migrateImages(ctx, sourceDB, targetDB, batchSize, onConflict)
	if err != nil {
		return err
	}

	log.Printf("Migration completed: %d copied, %d skipped, %d overwritten", stats.copied, stats.skipped, stats.overwritten)
	return nil
}

// migrateImages 分批复制图片记录
func migrateImages(ctx context.Context, sourceDB, targetDB *gorm.DB, batchSize int, onConflict string) (*migrateStats, error) {
	if onConflict != "skip" && onConflict != "overwrite" && onConflict != "error" {
		return nil, fmt.Errorf("invalid on-conflict strategy: %s (must be skip, overwrite, or error)", onConflict)
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	stats := &migrateStats{}
	var batch []models.Image
	err := sourceDB.WithContext(ctx).FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		return targetDB.WithContext(ctx).Transaction(func(dst *gorm.DB) error {
			for i := range batch {
				if err := copyImage(dst, &batch[i], onConflict, stats); err != nil {
					return err
				}
			}
			return nil
		})
	}).Error
	if err != nil {
		return stats, err
	}
	return stats, nil
}

// copyImage 按冲突策略写入单条记录，id 或 file_name 相同视为冲突
func copyImage(dst *gorm.DB, img *models.Image, onConflict string, stats *migrateStats) error {
	var count int64
	if err := dst.Model(&models.Image{}).Where("id = ? OR file_name = ?", img.ID, img.FileName).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		switch onConflict {
		case "skip":
			stats.skipped++
			return nil
		case "error":
			return fmt.Errorf("record already exists: %s", img.FileName)
		}
		if err := dst.Where("id = ? OR file_name = ?", img.ID, img.FileName).Delete(&models.Image{}).Error; err != nil {
			return err
		}
		stats.overwritten++
	}

	if err := dst.Create(img).Error; err != nil {
		return fmt.Errorf("failed to copy %s: %w", img.FileName, err)
	}
	stats.copied++
	return nil
}

// openDatabase 打开数据库连接
func openDatabase(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

var (
	dsnKeyPassword = regexp.MustCompile(`(password=)\S+`)
	dsnURLPassword = regexp.MustCompile(`(://[^:/@]+:)[^@]+@`)
)

// maskDSN 隐藏连接串中的密码
func maskDSN(dsn string) string {
	dsn = dsnKeyPassword.ReplaceAllString(dsn, "${1}****")
	return dsnURLPassword.ReplaceAllString(dsn, "${1}****@")
}
