package proxy

import (
	"errors"
	"hash/fnv"
	"net/url"
	"sync/atomic"
)

var (
	ErrNoProxy     = errors.New("proxy url list is empty")
	ErrCredentials = errors.New("proxy url must not carry credentials")
)

// RoundRobin 按顺序轮流返回代理地址，可并发使用
type RoundRobin struct {
	proxyURLs []*url.URL
	index     uint32
}

/*
输入代理服务器地址列表，输出轮询调度器

地址必须带协议和主机，例如 http://127.0.0.1:8080 或 socks5://10.0.0.2:1080；
浏览器的 --proxy-server 不接受用户名密码，带凭据的地址直接拒绝
*/
func NewRoundRobin(proxyURLs ...string) (*RoundRobin, error) {
	if len(proxyURLs) < 1 {
		return nil, ErrNoProxy
	}
	urls := make([]*url.URL, len(proxyURLs))
	for i, u := range proxyURLs {
		parsed, err := url.Parse(u)
		if err != nil {
			return nil, err
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return nil, errors.New("proxy url needs scheme and host: " + u)
		}
		if parsed.User != nil {
			return nil, ErrCredentials
		}
		urls[i] = parsed
	}
	return &RoundRobin{proxyURLs: urls}, nil
}

// Next 返回下一个代理地址
func (r *RoundRobin) Next() *url.URL {
	index := atomic.AddUint32(&r.index, 1) - 1
	return r.proxyURLs[index%uint32(len(r.proxyURLs))]
}

/*
输入本次运行的标识，输出本次运行使用的代理

每次运行都是新进程，轮询下标无法跨运行保留，因此由运行标识的哈希决定起点：
同一标识总是选中同一个代理，不同运行(run_id是随机uuid)分散到全部代理上。
选中后轮询从该代理之后继续
*/
func (r *RoundRobin) ForRun(runID string) *url.URL {
	h := fnv.New32a()
	h.Write([]byte(runID))
	start := h.Sum32() % uint32(len(r.proxyURLs))
	atomic.StoreUint32(&r.index, start+1)
	return r.proxyURLs[start]
}

// Server 返回浏览器 --proxy-server 参数使用的形式
func Server(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
