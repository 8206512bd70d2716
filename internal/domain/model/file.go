// Пакет model — доменные модели fileflow.
// FileRecord — запись файла в реестре метаданных (таблица file_metadata),
// ShareGrant — предоставленный доступ к файлу (таблица file_shares).
package model

import (
	"fmt"
	"time"
)

// FileRecord — запись файла в реестре метаданных.
// ID генерируется реестром (BIGSERIAL) и неизменен после присвоения.
type FileRecord struct {
	// ID — идентификатор файла (монотонно возрастающий, не переиспользуется)
	ID int64
	// FileName — оригинальное имя файла
	FileName string
	// FileSize — размер файла в байтах
	FileSize int64
	// Owner — идентификатор владельца (subject из токена)
	Owner string
	// UploadDate — время загрузки
	UploadDate time.Time
	// Tags — теги файла (массив строк, может быть пустым)
	Tags []string
}

// ShareGrant — предоставленный доступ на чтение к файлу.
// Уникален по паре (FileID, SharedWith). Живёт только пока существует
// FileRecord — удаление файла каскадно удаляет все его grants.
type ShareGrant struct {
	// FileID — идентификатор файла
	FileID int64
	// SharedWith — пользователь, которому предоставлен доступ
	SharedWith string
	// SharedBy — владелец, предоставивший доступ
	SharedBy string
	// SharedDate — время предоставления доступа
	SharedDate time.Time
}

// ObjectKey вычисляет ключ блоба в объектном хранилище.
// Формат фиксирован: "{owner}/{id}_{fileName}" — единственное место,
// связывающее блоб с метаданными. Ключ вычислим только после того,
// как реестр присвоил id, что и задаёт порядок шагов upload.
func ObjectKey(owner string, id int64, fileName string) string {
	return fmt.Sprintf("%s/%d_%s", owner, id, fileName)
}

// Key возвращает ключ блоба для записи файла.
func (f *FileRecord) Key() string {
	return ObjectKey(f.Owner, f.ID, f.FileName)
}
