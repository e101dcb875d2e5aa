package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/yteam/internal/config"
)

func TestModelsList(t *testing.T) {
	rt, _ := testRuntime(t, testModels)
	rt.cfg.Raw = true
	out, err := execute(t, rt, "", "models", "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "kimi_k2\tkimi-k2-0711-preview\thttps://api.moonshot.cn/v1\tkey sk-****7890", lines[0])
	require.Equal(t, "deepseek_r1\tdeepseek-reasoner\thttps://api.deepseek.com/v1\t$YTEAM_TEST_DEEPSEEK_KEY", lines[1])
	require.NotContains(t, out, "sk-test-1234567890")
}

func TestModelsShow(t *testing.T) {
	rt, _ := testRuntime(t, testModels)
	out, err := execute(t, rt, "", "models", "show")
	require.NoError(t, err)
	require.NotContains(t, out, "sk-test-1234567890")
	require.Contains(t, out, "api_key: sk-****7890")
	require.Contains(t, out, "temperature: 0.6")

	shown, err := config.ParseProfiles([]byte(out))
	require.NoError(t, err)
	require.Equal(t, []string{"kimi_k2", "deepseek_r1", "qwen3_coder"}, shown.IDs())
	kimi, err := shown.Lookup("kimi_k2")
	require.NoError(t, err)
	require.Equal(t, "https://api.moonshot.cn/v1", kimi.BaseURL)
}

func TestModelsListMissingFile(t *testing.T) {
	rt, _ := testRuntime(t, "")
	_, err := execute(t, rt, "", "models")
	require.Error(t, err)
}

func TestModelsInit(t *testing.T) {
	rt, _ := testRuntime(t, "")
	_, err := execute(t, rt, "", "models", "init", "--quiet")
	require.NoError(t, err)

	profiles, err := config.LoadProfiles(rt.cfg.ModelsFile)
	require.NoError(t, err)
	require.Equal(t, []string{"kimi_k2", "deepseek_r1", "qwen3_coder"}, profiles.IDs())

	_, err = execute(t, rt, "", "models", "init")
	require.Error(t, err)

	require.NoError(t, os.WriteFile(rt.cfg.ModelsFile, []byte("x: {config: {model: y}}\n"), 0o600))
	_, err = execute(t, rt, "", "models", "init", "--force", "--quiet")
	require.NoError(t, err)
	profiles, err = config.LoadProfiles(rt.cfg.ModelsFile)
	require.NoError(t, err)
	require.Equal(t, 3, profiles.Len())
}

func TestModelsCheck(t *testing.T) {
	t.Setenv("YTEAM_TEST_DEEPSEEK_KEY", "sk-from-env")

	t.Run("all valid", func(t *testing.T) {
		rt, _ := testRuntime(t, testModels)
		out, err := execute(t, rt, "", "models", "check")
		require.NoError(t, err)
		require.Contains(t, out, "✅ kimi_k2: kimi-k2-0711-preview")
		require.Contains(t, out, "✅ deepseek_r1: deepseek-reasoner")
	})

	t.Run("broken entries", func(t *testing.T) {
		rt, _ := testRuntime(t, testModels+`no_model:
  config:
    base_url: https://example.com/v1
    api_key: sk-whatever
`)
		out, err := execute(t, rt, "", "models", "check", "kimi_k2", "no_model", "ghost")
		require.Error(t, err)
		require.Contains(t, out, "✅ kimi_k2")
		require.Contains(t, out, "❌ no_model")
		require.Contains(t, out, "❌ ghost")
	})
}
