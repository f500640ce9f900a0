// Package storage 管理商品图片文件，文件名统一用 uuid 生成
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/velours/internal/apperr"
)

// 允许上传的图片扩展名
var allowedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Images 图片目录
type Images struct {
	dir string
}

func NewImages(dir string) (*Images, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Images{dir: dir}, nil
}

func (s *Images) Dir() string { return s.dir }

// Allowed 只看扩展名
func Allowed(name string) bool {
	return allowedExt[strings.ToLower(filepath.Ext(name))]
}

// Save 写入新文件并返回生成的文件名
func (s *Images) Save(original string, r io.Reader) (string, error) {
	if !Allowed(original) {
		return "", apperr.New(apperr.InvalidInput, "product.image_type")
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(original))
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}

// Remove 删除文件，文件名为空或文件不存在都算成功
func (s *Images) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveAll 逐个删除，失败只记日志，返回成功处理的数量
func (s *Images) RemoveAll(names []string) int {
	n := 0
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := s.Remove(name); err != nil {
			zap.L().Warn("remove image failed", zap.String("file", name), zap.Error(err))
			continue
		}
		n++
	}
	return n
}
