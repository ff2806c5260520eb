// Package storage хранит загруженные файлы в локальном каталоге.
//
// Загрузка идёт в две фазы: Stage пишет содержимое во временный файл с
// уникальным именем, Commit переименовывает его в итоговое имя
// (<префикс>_<очищенное имя>), Discard удаляет.
// Так запись в БД и файл либо появляются вместе, либо не появляются вовсе.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

var ErrInvalidFilename = errors.New("invalid file name")

// Длина уникального префикса итогового имени, в hex-символах uuid.
const prefixLen = 12

type Uploads struct {
	dir string
}

func NewUploads(dir string) (*Uploads, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Uploads{dir: dir}, nil
}

func (u *Uploads) Dir() string { return u.dir }

// Path возвращает полный путь к сохранённому файлу.
func (u *Uploads) Path(name string) string {
	return filepath.Join(u.dir, filepath.Base(name))
}

// Remove удаляет ранее сохранённый файл; отсутствие файла не ошибка.
func (u *Uploads) Remove(name string) error {
	if name == "" {
		return nil
	}
	if err := os.Remove(u.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Staged: файл, записанный во временное место и ещё не опубликованный.
type Staged struct {
	Name string // итоговое имя, его и кладём в запись

	tmp   string
	final string
	done  bool
}

// Stage сохраняет содержимое fh во временный файл.
func (u *Uploads) Stage(fh *multipart.FileHeader) (*Staged, error) {
	name, err := SanitizeFilename(fh.Filename)
	if err != nil {
		return nil, err
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	return u.StageReader(name, src)
}

// StageReader работает как Stage, но для уже очищенного имени и произвольного
// источника. Итоговое имя получает уникальный префикс, поэтому одноимённые файлы
// разных записей не затирают друг друга.
func (u *Uploads) StageReader(name string, r io.Reader) (*Staged, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	tmp := filepath.Join(u.dir, ".upload-"+id)
	dst, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("close upload: %w", err)
	}
	final := id[:prefixLen] + "_" + name
	return &Staged{Name: final, tmp: tmp, final: filepath.Join(u.dir, final)}, nil
}

// Commit публикует файл под итоговым именем.
func (s *Staged) Commit() error {
	if s == nil || s.done {
		return nil
	}
	if err := os.Rename(s.tmp, s.final); err != nil {
		return fmt.Errorf("publish upload: %w", err)
	}
	s.done = true
	return nil
}

// Discard удаляет временный файл; после Commit ничего не делает.
func (s *Staged) Discard() {
	if s == nil || s.done {
		return
	}
	os.Remove(s.tmp)
	s.done = true
}

// SanitizeFilename оставляет от клиентского имени только базовое имя из
// латиницы, цифр, '.', '-', '_'; пробелы превращаются в '_'.
func SanitizeFilename(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}

	clean := strings.Trim(b.String(), "._")
	if clean == "" {
		return "", ErrInvalidFilename
	}
	return clean, nil
}
