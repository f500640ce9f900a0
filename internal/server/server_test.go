package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/velours/internal/config"
	"github.com/example/velours/internal/datamodels/order"
	"github.com/example/velours/internal/datamodels/product"
	"github.com/example/velours/internal/repository/sqldb/sqldbtest"
)

type testServer struct {
	srv  *httptest.Server
	db   *gorm.DB
	deps *Deps
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.LogLevel = "disable"
	cfg.UploadDir = t.TempDir()
	cfg.Concurrency = 4

	db := sqldbtest.New(t)
	deps, err := NewDeps(cfg, db)
	require.NoError(t, err)
	t.Cleanup(deps.Close)
	require.NoError(t, deps.Users.EnsureAdmin(context.Background(), &cfg.Admin))

	app, err := NewApp(deps)
	require.NoError(t, err)
	RegisterRoutes(app, deps)
	RegisterAdminRoutes(app, deps)
	require.NoError(t, app.Build())

	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, db: db, deps: deps}
}

// client 每个客户端独立的 cookie，不自动跟随跳转
func (s *testServer) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *testServer) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(s.srv.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (s *testServer) postForm(t *testing.T, c *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(s.srv.URL+path, form)
	require.NoError(t, err)
	readBody(t, resp)
	return resp
}

func (s *testServer) postJSON(t *testing.T, c *http.Client, path string, body interface{}) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, s.srv.URL+path, strings.NewReader(string(raw)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	resp, err := c.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &out))
	return out
}

func (s *testServer) login(t *testing.T, c *http.Client, email, password string) {
	t.Helper()
	resp := s.postForm(t, c, "/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.get(t, s.client(t), "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"code":0,"msg":"ok"}`, body)
}

func TestRegisterLoginCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	cat := sqldbtest.CreateCategory(t, s.db, "Floral")
	p := sqldbtest.CreateProduct(t, s.db, "Rose Noire", "49.90", 5, cat)
	c := s.client(t)

	// 未登录访问购物车跳到登录页
	resp, _ := s.get(t, c, "/cart")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/login?next=%2Fcart", resp.Header.Get("Location"))

	resp = s.postForm(t, c, "/register", url.Values{
		"username": {"camille"},
		"email":    {"camille@example.com"},
		"password": {"secret1"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	s.login(t, c, "camille@example.com", "secret1")

	out := s.postJSON(t, c, "/add-to-cart", map[string]interface{}{"product_id": p.ID, "quantity": 2})
	require.Equal(t, true, out["success"])

	resp, body := s.get(t, c, "/cart-count")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"count":2}`, body)

	resp, body = s.get(t, c, "/cart")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Rose Noire")
	require.Contains(t, body, "99.80 €")

	resp = s.postForm(t, c, "/checkout", url.Values{
		"address": {"12 avenue Montaigne, Paris"},
		"phone":   {"0601020304"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var o order.Order
	require.NoError(t, s.db.Preload("Items").First(&o).Error)
	require.Equal(t, fmt.Sprintf("/order-confirmation/%d", o.ID), resp.Header.Get("Location"))
	require.Equal(t, order.StatusPending, o.Status)
	require.Equal(t, "99.80", o.TotalAmount.StringFixed(2))
	require.Len(t, o.Items, 1)

	var stored product.Product
	require.NoError(t, s.db.First(&stored, p.ID).Error)
	require.EqualValues(t, 3, stored.Stock)

	resp, body = s.get(t, c, resp.Header.Get("Location"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Rose Noire")

	// 下单后购物车清空
	_, body = s.get(t, c, "/cart-count")
	require.JSONEq(t, `{"count":0}`, body)
}

func TestCheckoutInsufficientStockKeepsCart(t *testing.T) {
	s := newTestServer(t)
	p := sqldbtest.CreateProduct(t, s.db, "Ambre", "30.00", 2, nil)
	c := s.client(t)
	s.postForm(t, c, "/register", url.Values{
		"username": {"louis"}, "email": {"louis@example.com"}, "password": {"secret1"},
	})
	s.login(t, c, "louis@example.com", "secret1")

	out := s.postJSON(t, c, "/add-to-cart", map[string]interface{}{"product_id": p.ID, "quantity": 2})
	require.Equal(t, true, out["success"])

	// 下单前库存被其他人买走
	require.NoError(t, s.db.Model(&product.Product{}).Where("id = ?", p.ID).Update("stock", 1).Error)

	resp := s.postForm(t, c, "/checkout", url.Values{"address": {"Lyon"}, "phone": {"0600000000"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/cart", resp.Header.Get("Location"))

	var count int64
	require.NoError(t, s.db.Model(&order.Order{}).Count(&count).Error)
	require.Zero(t, count)

	_, body := s.get(t, c, "/cart-count")
	require.JSONEq(t, `{"count":2}`, body)
}

func TestAddToCartClampsToStock(t *testing.T) {
	s := newTestServer(t)
	p := sqldbtest.CreateProduct(t, s.db, "Vetiver", "55.00", 3, nil)
	c := s.client(t)
	s.postForm(t, c, "/register", url.Values{
		"username": {"ines"}, "email": {"ines@example.com"}, "password": {"secret1"},
	})
	s.login(t, c, "ines@example.com", "secret1")

	out := s.postJSON(t, c, "/add-to-cart", map[string]interface{}{"product_id": p.ID, "quantity": 10})
	require.Equal(t, false, out["success"])
	_, body := s.get(t, c, "/cart-count")
	require.JSONEq(t, `{"count":0}`, body)

	out = s.postJSON(t, c, "/add-to-cart", map[string]interface{}{"product_id": p.ID, "quantity": 2})
	require.Equal(t, true, out["success"])

	// 累计超过库存时截断并提示
	out = s.postJSON(t, c, "/add-to-cart", map[string]interface{}{"product_id": p.ID, "quantity": 2})
	require.Equal(t, false, out["success"])
	require.NotEmpty(t, out["message"])

	_, body = s.get(t, c, "/cart-count")
	require.JSONEq(t, `{"count":3}`, body)

	out = s.postJSON(t, c, "/add-to-cart", map[string]interface{}{"product_id": 9999})
	require.Equal(t, false, out["success"])
}

func TestAdminRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t)
	s.postForm(t, c, "/register", url.Values{
		"username": {"paul"}, "email": {"paul@example.com"}, "password": {"secret1"},
	})
	s.login(t, c, "paul@example.com", "secret1")

	resp, _ := s.get(t, c, "/admin")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
}

func TestAdminDashboardAndMetrics(t *testing.T) {
	s := newTestServer(t)
	cfg := s.deps.Config
	sqldbtest.CreateProduct(t, s.db, "Iris Poudre", "80.00", 4, nil)
	c := s.client(t)
	s.login(t, c, cfg.Admin.Email, cfg.Admin.Password)

	resp, body := s.get(t, c, "/admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body)

	resp, body = s.get(t, c, "/admin/products")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Iris Poudre")

	resp, body = s.get(t, c, "/admin/api/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &stats))
	require.Contains(t, stats, "checkout")
	require.Contains(t, stats, "errors")

	resp, _ = s.get(t, c, "/admin/products/export")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "produits_")
}

func TestSetLanguage(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t)

	req, err := http.NewRequest(http.MethodGet, s.srv.URL+"/set_language/en", nil)
	require.NoError(t, err)
	req.Header.Set("Referer", "/products")
	resp, err := c.Do(req)
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/products", resp.Header.Get("Location"))

	_, body := s.get(t, c, "/")
	require.Contains(t, body, `<html lang="en">`)
	require.Contains(t, body, "Elegance in a bottle")

	// 不支持的语言保持不变
	s.get(t, c, "/set_language/de")
	_, body = s.get(t, c, "/")
	require.Contains(t, body, `<html lang="en">`)
}

func TestNotFoundPage(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t)

	resp, body := s.get(t, c, "/nope")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, body, "Page introuvable")

	resp, _ = s.get(t, c, "/product/424242")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotFoundAnswersJSONForAjax(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, s.srv.URL+"/nope", nil)
	require.NoError(t, err)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	resp, err := s.client(t).Do(req)
	require.NoError(t, err)
	body := readBody(t, resp)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.JSONEq(t, `{"success":false,"message":"Page introuvable"}`, body)
}
