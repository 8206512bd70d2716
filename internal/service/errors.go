// Пакет service — бизнес-логика FileFlow.
// errors.go — доменные ошибки оркестратора файловых операций.
package service

import "errors"

// Доменные ошибки. Handlers транслируют их в HTTP-коды и коды ошибок API.
var (
	// ErrFileNotFound — запись о файле отсутствует в реестре метаданных.
	ErrFileNotFound = errors.New("файл не найден")

	// ErrObjectNotFound — запись метаданных существует, но блоб отсутствует
	// в объектном хранилище (рассинхронизация систем).
	ErrObjectNotFound = errors.New("объект отсутствует в хранилище")

	// ErrForbidden — запрашивающий не владелец и не имеет гранта доступа.
	ErrForbidden = errors.New("доступ запрещён")

	// ErrFileTooLarge — размер файла превышает допустимый максимум.
	ErrFileTooLarge = errors.New("размер файла превышает максимум")

	// ErrSelfShare — попытка расшарить файл самому себе.
	ErrSelfShare = errors.New("нельзя расшарить файл самому себе")

	// ErrAlreadyShared — грант для этой пары (файл, пользователь) уже существует.
	ErrAlreadyShared = errors.New("файл уже расшарен этому пользователю")

	// ErrGrantNotFound — грант для отзыва не найден.
	ErrGrantNotFound = errors.New("запись о предоставленном доступе не найдена")

	// ErrMetadataUnavailable — реестр метаданных недоступен (инфраструктурная
	// ошибка, запрос можно повторить).
	ErrMetadataUnavailable = errors.New("реестр метаданных недоступен")

	// ErrObjectStoreUnavailable — объектное хранилище недоступно.
	ErrObjectStoreUnavailable = errors.New("объектное хранилище недоступно")

	// ErrInconsistent — операция оставила системы в несогласованном состоянии
	// (например, компенсация saga не выполнилась). Требует вмешательства.
	ErrInconsistent = errors.New("хранилища в несогласованном состоянии")
)
