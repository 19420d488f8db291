package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"deal-agents-go/internal/model"
)

// maxRequestBody 请求体上限
const maxRequestBody = 1 << 20

// RunRequest 路由请求参数，三个字段至少一个非空
// {"task": "...", "url": "...", "lead_text": "..."}
type RunRequest = model.Request

// errorResponse 错误响应 {"detail": "..."}
type errorResponse struct {
	Detail string `json:"detail"`
}

// decodeRunRequest 解析JSON请求体，空请求体视为空请求
func decodeRunRequest(r *http.Request) (RunRequest, error) {
	var req RunRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req)
	if errors.Is(err, io.EOF) {
		return req, nil
	}
	return req, err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
