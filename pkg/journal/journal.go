// Package journal 把每次运行中各设备的处理结果追加到本地 sqlite 数据库
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/wentf9/showcmd/pkg/logger"
	"github.com/wentf9/showcmd/pkg/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// RunRecord 一台设备的一次处理记录，不保存任何凭据
type RunRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RunID          string    `gorm:"size:36;index" json:"run_id"`
	Address        string    `gorm:"size:255;index" json:"address"`
	Platform       string    `gorm:"size:64" json:"platform"`
	Status         string    `gorm:"size:16" json:"status"`
	File           string    `gorm:"size:1024" json:"file"`
	CommandsRun    int       `json:"commands_run"`
	CommandsFailed int       `json:"commands_failed"`
	Error          string    `gorm:"type:text" json:"error"`
	CreatedAt      time.Time `json:"created_at"`
}

func (RunRecord) TableName() string { return "run_records" }

// Journal 一次运行对应一个 run_id
type Journal struct {
	db    *gorm.DB
	runID string
}

// Open 打开(必要时创建)数据库并迁移表结构
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: gormLogger.New(
			logger.Logger,
			gormLogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		SkipDefaultTransaction: true,
	}
	dsn := path + "?_pragma=busy_timeout(15000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return &Journal{db: db, runID: uuid.NewString()}, nil
}

// RunID 本次运行的标识
func (j *Journal) RunID() string { return j.runID }

// Record 追加一条设备处理记录
func (j *Journal) Record(o models.Outcome) error {
	rec := RunRecord{
		RunID:          j.runID,
		Address:        o.Target.Address,
		Platform:       string(o.Target.Platform),
		Status:         string(o.Status),
		File:           o.File,
		CommandsRun:    o.CommandsRun,
		CommandsFailed: o.CommandsFailed,
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	return j.db.Create(&rec).Error
}

// Latest 按时间倒序返回最近的记录，address 非空时只返回该设备
func (j *Journal) Latest(limit int, address string) ([]RunRecord, error) {
	var out []RunRecord
	q := j.db.Order("id DESC")
	if address != "" {
		q = q.Where("address = ?", address)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Close 关闭数据库连接
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
