package service

import (
	"fmt"
	"strings"

	"github.com/gmatprep/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultSiteName    = "GMAT Prep"
	defaultSiteTagline = "Quant and verbal lessons with worked examples."
	maxSettingLength   = 500
)

// SystemSettings 描述后台可配置的站点信息。
type SystemSettings struct {
	SiteName   string `json:"siteName"`
	Tagline    string `json:"tagline"`
	FooterText string `json:"footerText"`
}

// SystemSettingsInput 用于更新站点设置。
type SystemSettingsInput struct {
	SiteName   string `json:"siteName"`
	Tagline    string `json:"tagline"`
	FooterText string `json:"footerText"`
}

// SystemSettingService 提供站点设置的读取与更新能力。
type SystemSettingService struct {
	db *gorm.DB
}

// NewSystemSettingService 构造 SystemSettingService。
func NewSystemSettingService(gdb *gorm.DB) *SystemSettingService {
	return &SystemSettingService{db: gdb}
}

var settingKeys = []string{
	db.SettingKeySiteName,
	db.SettingKeySiteTagline,
	db.SettingKeyFooterText,
}

// GetSettings 读取站点设置，如未设置将返回默认值。
func (s *SystemSettingService) GetSettings() (SystemSettings, error) {
	result := SystemSettings{SiteName: defaultSiteName, Tagline: defaultSiteTagline}

	var records []db.SystemSetting
	if err := s.db.Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load system settings: %w", err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeySiteName:
			if strings.TrimSpace(record.Value) != "" {
				result.SiteName = record.Value
			}
		case db.SettingKeySiteTagline:
			result.Tagline = record.Value
		case db.SettingKeyFooterText:
			result.FooterText = record.Value
		}
	}

	return result, nil
}

// UpdateSettings 保存站点设置，未填写站点名称时回退默认值。
func (s *SystemSettingService) UpdateSettings(input SystemSettingsInput) (SystemSettings, error) {
	sanitized := SystemSettings{
		SiteName:   truncate(strings.TrimSpace(input.SiteName), maxSettingLength),
		Tagline:    truncate(strings.TrimSpace(input.Tagline), maxSettingLength),
		FooterText: truncate(strings.TrimSpace(input.FooterText), maxSettingLength),
	}
	if sanitized.SiteName == "" {
		sanitized.SiteName = defaultSiteName
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := upsertSetting(tx, db.SettingKeySiteName, sanitized.SiteName); err != nil {
			return err
		}
		if err := upsertSetting(tx, db.SettingKeySiteTagline, sanitized.Tagline); err != nil {
			return err
		}
		return upsertSetting(tx, db.SettingKeyFooterText, sanitized.FooterText)
	})
	if err != nil {
		return SystemSettings{}, fmt.Errorf("update system settings: %w", err)
	}

	return sanitized, nil
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.SystemSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
