package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dotcommander/yteam/internal/config"
	"github.com/dotcommander/yteam/internal/proto"
	"github.com/dotcommander/yteam/internal/session"
)

const testModels = `kimi_k2:
  config:
    model: kimi-k2-0711-preview
    base_url: https://api.moonshot.cn/v1
    api_key: sk-test-1234567890
    temperature: 0.6
deepseek_r1:
  config:
    model: deepseek-reasoner
    base_url: https://api.deepseek.com/v1
    api_key_env: YTEAM_TEST_DEEPSEEK_KEY
qwen3_coder:
  config:
    model: qwen3-coder-plus
    base_url: https://dashscope.aliyuncs.com/compatible-mode/v1
    api_key: sk-test-abcdefghij
`

type stubParticipant struct {
	name   string
	closes *atomic.Int32
}

func (s *stubParticipant) Name() string { return s.name }

func (s *stubParticipant) Send(_ context.Context, prompt string, onDelta func(string)) (string, error) {
	reply := "echo:" + prompt
	onDelta(reply)
	return reply, nil
}

func (s *stubParticipant) Reply(_ context.Context, turns []proto.Turn, onDelta func(string)) (string, error) {
	reply := fmt.Sprintf("%s answers turn %d", s.name, len(turns))
	onDelta(reply)
	return reply, nil
}

func (s *stubParticipant) Close() error {
	s.closes.Add(1)
	return nil
}

type stubFactory struct {
	mu     sync.Mutex
	built  []session.Member
	fail   map[string]error
	closes atomic.Int32
}

func (f *stubFactory) build(_ context.Context, m session.Member) (session.Participant, error) {
	if err := f.fail[m.Profile.ID]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.built = append(f.built, m)
	f.mu.Unlock()
	return &stubParticipant{name: m.Name, closes: &f.closes}, nil
}

func (f *stubFactory) profileIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.built))
	for _, m := range f.built {
		ids = append(ids, m.Profile.ID)
	}
	return ids
}

// testRuntime returns a runtime rooted in a temp dir. An empty models
// string leaves the models file missing.
func testRuntime(t *testing.T, models string) (*runtime, *stubFactory) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.SettingsPath = filepath.Join(dir, "yteam.yml")
	cfg.CachePath = filepath.Join(dir, "history")
	cfg.ModelsFile = filepath.Join(dir, "custom_models_config.yaml")
	if models != "" {
		require.NoError(t, os.WriteFile(cfg.ModelsFile, []byte(models), 0o600))
	}
	f := &stubFactory{}
	return &runtime{
		cfg:         cfg,
		log:         zap.NewNop(),
		factory:     f.build,
		interactive: func() bool { return false },
	}, f
}

func execute(t *testing.T, rt *runtime, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(rt)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}
