package tradecore_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// Test Launcher
func TestTradecore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "trading-core suite")
}
