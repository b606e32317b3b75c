package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswer: `You answer questions using only the numbered passages below.

Passages:
%s

Question: %s

Rules:
1. Every statement must be supported by at least one passage.
2. Quote figures, dates and defined terms exactly as they appear.
3. If the passages do not contain the answer, say "The documents do not contain this information."
4. Be concise.

Respond with a JSON object:
{"answer": "your answer", "citations": [passage numbers you relied on]}`,

	driven.PromptCorrect: `You are revising an answer that failed verification. Use only the numbered passages below.

Passages:
%s

Question: %s

Previous answer:
%s

Verification feedback:
%s

Rules:
1. Remove or fix every unsupported statement listed in the feedback.
2. Add the missing information when the passages contain it.
3. Do not introduce statements the passages do not support.
4. If information is genuinely absent, say so plainly.

Respond with a JSON object:
{"answer": "your revised answer", "citations": [passage numbers you relied on]}`,

	driven.PromptVerify: `You check whether an answer is fully supported by its sources.

Question: %s

Sources:
%s

Answer:
%s

Tasks:
1. List every statement in the answer that the sources do not support. Quote the statement.
2. List information the question asks for that the sources contain but the answer omits.
3. Note any other accuracy concerns.

Respond with a JSON object and nothing else:
{"verification_status": "VERIFIED" or "NEEDS_CORRECTION", "issues": ["unsupported statement"], "missing_information": ["omitted point"], "concerns": ["other concern"]}`,

	driven.PromptVerifyRepair: `Your previous reply was not valid JSON:
%s

Reply again with only the JSON object described above.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.verity/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".verity", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Verity Prompts

These prompts drive answer generation and verification. Edit any file to
customise model behaviour. Changes take effect on the next command.

## Files

- ` + "`answer.txt`" + ` - First draft from retrieved passages (passages, question)
- ` + "`correct.txt`" + ` - Revision after failed verification (passages, question, draft, feedback)
- ` + "`verify.txt`" + ` - Critique of a draft (question, sources, draft)
- ` + "`verify_repair.txt`" + ` - Re-ask after malformed verifier output (previous reply)

## Format Placeholders

Each ` + "`%s`" + ` is filled in the order listed above. Keep the placeholders and
the JSON response shapes intact, or answers will fail to parse.
`
	return os.WriteFile(path, []byte(content), 0600)
}
