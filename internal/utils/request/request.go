package request

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// New builds the HTTP client used for venue calls. An empty proxy falls back to
// the environment (HTTP_PROXY/HTTPS_PROXY). Orders must never be resent, so retries stay off.
// go-binance only accepts a plain *http.Client; pass it GetClient(), which carries
// the proxy transport and timeout set here.
func New(proxy string, timeout time.Duration) (*resty.Client, error) {
	proxyFunc := http.ProxyFromEnvironment // 通用适配环境变量
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		proxyFunc = http.ProxyURL(u)
	}

	return resty.New().
		SetTransport(&http.Transport{
			Proxy: proxyFunc,
		}).
		SetTimeout(timeout).
		SetRetryCount(0), nil
}
