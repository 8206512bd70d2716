package model

import "testing"

// TestObjectKey проверяет детерминированность и формат ключа блоба.
func TestObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		owner    string
		id       int64
		fileName string
		want     string
	}{
		{"базовый случай", "alice", 42, "report.pdf", "alice/42_report.pdf"},
		{"первый id", "bob", 1, "photo.jpg", "bob/1_photo.jpg"},
		{"имя с пробелами", "alice", 7, "my file.txt", "alice/7_my file.txt"},
		{"имя с подчёркиванием", "carol", 100, "a_b.tar.gz", "carol/100_a_b.tar.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ObjectKey(tt.owner, tt.id, tt.fileName)
			if got != tt.want {
				t.Errorf("ObjectKey(%q, %d, %q) = %q, ожидался %q",
					tt.owner, tt.id, tt.fileName, got, tt.want)
			}
		})
	}
}

// TestFileRecord_Key проверяет, что ключ записи совпадает с ObjectKey.
func TestFileRecord_Key(t *testing.T) {
	f := &FileRecord{ID: 42, FileName: "report.pdf", Owner: "alice"}
	if got := f.Key(); got != "alice/42_report.pdf" {
		t.Errorf("Key() = %q, ожидался alice/42_report.pdf", got)
	}
}
