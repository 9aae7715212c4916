package relay

import "testing"

func TestNewEnv(t *testing.T) {
	env := NewEnv([]Variable{
		{Name: "OPENAI_API_KEY", Value: "sk-abc"},
		{Name: "REGION", Value: "eu"},
	})

	got, ok := env.Get("OPENAI_API_KEY")
	if !ok || got != "sk-abc" {
		t.Errorf("Get(OPENAI_API_KEY) = %q, %v, want sk-abc, true", got, ok)
	}
	got, ok = env.Get("REGION")
	if !ok || got != "eu" {
		t.Errorf("Get(REGION) = %q, %v, want eu, true", got, ok)
	}
}

func TestEnvBagWinsOverProcessEnv(t *testing.T) {
	t.Setenv("RELAY_TEST_VAR", "from-process")

	env := NewEnv([]Variable{{Name: "RELAY_TEST_VAR", Value: "from-bag"}})
	if got, _ := env.Get("RELAY_TEST_VAR"); got != "from-bag" {
		t.Errorf("Get = %q, want from-bag", got)
	}
}

func TestEnvFallsBackToProcessEnv(t *testing.T) {
	t.Setenv("RELAY_TEST_VAR", "from-process")

	env := NewEnv(nil)
	got, ok := env.Get("RELAY_TEST_VAR")
	if !ok || got != "from-process" {
		t.Errorf("Get = %q, %v, want from-process, true", got, ok)
	}
}

func TestEnvEmptyBagValueFallsThrough(t *testing.T) {
	t.Setenv("RELAY_TEST_VAR", "from-process")

	env := NewEnv([]Variable{{Name: "RELAY_TEST_VAR", Value: ""}})
	if got, _ := env.Get("RELAY_TEST_VAR"); got != "from-process" {
		t.Errorf("Get = %q, want from-process", got)
	}
}

func TestEnvMissing(t *testing.T) {
	t.Setenv("RELAY_TEST_VAR", "")

	env := NewEnv(nil)
	if got, ok := env.Get("RELAY_TEST_VAR"); ok {
		t.Errorf("Get = %q, %v, want miss", got, ok)
	}
}
