package model

import "fmt"

// ValidationError 请求没有可用字段，返回给客户端
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FetchError 抓取页面失败（网络、超时、非2xx）
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ServiceError 生成服务调用失败
type ServiceError struct {
	Stage string
	Err   error
}

func (e *ServiceError) Error() string {
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
