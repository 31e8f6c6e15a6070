package authz

import (
	"encoding/json"
	"net/http"
)

// RoleHeader は呼び出し元の役割を受け取るヘッダー名です。役割の検証は
// 前段の認証基盤が済ませている前提です。
const RoleHeader = "X-User-Role"

// Require は操作 action を許可された役割だけに絞り込むミドルウェアを返します。
func Require(policy *Policy, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := Role(r.Header.Get(RoleHeader))
			if role == "" {
				writeDenied(w, http.StatusUnauthorized, "missing role")
				return
			}

			if !policy.Allows(role, action) {
				writeDenied(w, http.StatusForbidden, "operation not permitted")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeDenied(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
