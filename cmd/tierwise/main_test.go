package main

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/importer"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/store"
)

// TestRunImportReturnsError 导入失败时返回错误而不是直接退出，且数据库可以正常关闭
func TestRunImportReturnsError(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "tierwise.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	tests := []struct {
		name string
		file string
		mode string
	}{
		{"文件不存在", filepath.Join(t.TempDir(), "missing.xlsx"), importer.ModeReplace},
		{"未知模式", filepath.Join(t.TempDir(), "missing.xlsx"), "merge"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runImport(s, zerolog.Nop(), tt.file, tt.mode); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	logs, err := s.ListImportLogs(10)
	if err != nil {
		t.Fatalf("ListImportLogs: %v", err)
	}
	if len(logs) != len(tests) {
		t.Fatalf("import logs = %d, want %d", len(logs), len(tests))
	}
	for _, l := range logs {
		if l.Status != model.ImportFailed {
			t.Errorf("import %s status = %s, want failed", l.ID, l.Status)
		}
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close after failed import: %v", err)
	}
}
