package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartupOrder_Empty(t *testing.T) {
	assert.Nil(t, StartupOrder(nil))
}

func TestStartupOrder_DatabaseFirst(t *testing.T) {
	order := StartupOrder([]ServiceNode{
		{Name: "webserver", DependsOn: []string{"db"}},
		{Name: "db"},
	})
	assert.Equal(t, []string{"db", "webserver"}, order)
}

func TestStartupOrder_Chain(t *testing.T) {
	order := StartupOrder([]ServiceNode{
		{Name: "selenium", DependsOn: []string{"webserver"}},
		{Name: "webserver", DependsOn: []string{"db", "exttests"}},
		{Name: "exttests"},
		{Name: "db"},
	})
	assert.Equal(t, []string{"db", "exttests", "webserver", "selenium"}, order)
}

func TestStartupOrder_IgnoresUnknownDependencies(t *testing.T) {
	order := StartupOrder([]ServiceNode{
		{Name: "webserver", DependsOn: []string{"mailpit"}},
	})
	assert.Equal(t, []string{"webserver"}, order)
}

func TestStartupOrder_CycleFallback(t *testing.T) {
	order := StartupOrder([]ServiceNode{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"a"}},
		{Name: "c"},
	})
	assert.Equal(t, []string{"c", "a", "b"}, order)
}
