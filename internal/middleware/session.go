package middleware

import (
	"context"
	"encoding/json"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/sessions"
	"go.uber.org/zap"

	"github.com/example/velours/internal/cart"
)

// 会话中使用的键，值一律存字符串，内存与 redis 后端表现一致
const (
	sessionCartKey  = "cart"
	sessionLangKey  = "language"
	sessionFlashKey = "_flashes"
)

// Flash 一次性提示，Category 为 success / error / warning / info
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// AddFlash 追加一条提示，下次渲染页面时取出
func AddFlash(ctx iris.Context, category, message string) {
	sess := sessions.Get(ctx)
	if sess == nil {
		return
	}
	flashes := readFlashes(sess)
	flashes = append(flashes, Flash{Category: category, Message: message})
	body, _ := json.Marshal(flashes)
	sess.Set(sessionFlashKey, string(body))
}

// FlashT 按当前语言翻译后追加
func FlashT(ctx iris.Context, category, key string, args ...interface{}) {
	AddFlash(ctx, category, Translate(ctx, key, args...))
}

// PopFlashes 取出并清空
func PopFlashes(ctx iris.Context) []Flash {
	sess := sessions.Get(ctx)
	if sess == nil {
		return nil
	}
	flashes := readFlashes(sess)
	if len(flashes) > 0 {
		sess.Delete(sessionFlashKey)
	}
	return flashes
}

func readFlashes(sess *sessions.Session) []Flash {
	raw := sess.GetString(sessionFlashKey)
	if raw == "" {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal([]byte(raw), &flashes); err != nil {
		return nil
	}
	return flashes
}

// Translate 按当前请求语言翻译，缺少翻译时退回 key 本身
func Translate(ctx iris.Context, key string, args ...interface{}) string {
	if i18n := ctx.Application().I18nReadOnly(); i18n == nil || len(i18n.Tags()) == 0 {
		return key
	}
	if msg := ctx.Tr(key, args...); msg != "" {
		return msg
	}
	return key
}

// sessionCartStore 把购物车序列化进会话
type sessionCartStore struct {
	sess *sessions.Session
}

// CartStore 当前请求的购物车存储
func CartStore(ctx iris.Context) cart.Store {
	return &sessionCartStore{sess: sessions.Get(ctx)}
}

func (s *sessionCartStore) Load(_ context.Context) (*cart.Cart, error) {
	c := cart.New()
	if s.sess == nil {
		return c, nil
	}
	raw := s.sess.GetString(sessionCartKey)
	if raw == "" {
		return c, nil
	}
	if err := json.Unmarshal([]byte(raw), c); err != nil {
		// 会话里的数据损坏时丢弃购物车
		zap.L().Warn("drop malformed cart", zap.Error(err))
		s.sess.Delete(sessionCartKey)
		return cart.New(), nil
	}
	return c, nil
}

func (s *sessionCartStore) Save(_ context.Context, c *cart.Cart) error {
	if s.sess == nil {
		return nil
	}
	if c == nil || c.IsEmpty() {
		s.sess.Delete(sessionCartKey)
		return nil
	}
	body, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.sess.Set(sessionCartKey, string(body))
	return nil
}

func (s *sessionCartStore) Clear(_ context.Context) error {
	if s.sess != nil {
		s.sess.Delete(sessionCartKey)
	}
	return nil
}

// Language 会话中的语言，未设置时返回 def
func Language(ctx iris.Context, def string) string {
	if sess := sessions.Get(ctx); sess != nil {
		if lang := sess.GetString(sessionLangKey); lang != "" {
			return lang
		}
	}
	return def
}

// SetLanguage 只接受 supported 中的语言
func SetLanguage(ctx iris.Context, lang string, supported []string) bool {
	for _, l := range supported {
		if l == lang {
			if sess := sessions.Get(ctx); sess != nil {
				sess.Set(sessionLangKey, lang)
			}
			return true
		}
	}
	return false
}

// LanguageSwitch 任意页面带 ?lang=xx 时切换语言
func LanguageSwitch(supported []string) iris.Handler {
	return func(ctx iris.Context) {
		if lang := ctx.URLParam("lang"); lang != "" {
			SetLanguage(ctx, lang, supported)
		}
		ctx.Next()
	}
}
