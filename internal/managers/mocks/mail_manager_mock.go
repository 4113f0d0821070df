package mocks

import "github.com/stretchr/testify/mock"

type MockMailManager struct {
	mock.Mock
}

func (m *MockMailManager) SendOTPMail(email, name, otp string) error {
	args := m.Called(email, name, otp)
	return args.Error(0)
}
