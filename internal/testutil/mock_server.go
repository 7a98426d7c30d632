//go:build !production

package testutil

import (
	"github.com/stretchr/testify/mock"
)

// MockServer 实现 types.ServerInterface 的 mock
//
// 维护模式通过 On("IsMaintenanceMode") 控制。
type MockServer struct {
	mock.Mock
}

func (m *MockServer) IsMaintenanceMode() bool {
	args := m.Called()
	return args.Bool(0)
}
