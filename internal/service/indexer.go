package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/tidwall/gjson"

	"codechat/internal/config"
	"codechat/internal/errs"
	"codechat/internal/extractor"
	"codechat/internal/metrics"
	"codechat/internal/model"
	"codechat/internal/repository"
	"codechat/pkg/logger"
)

// IndexReport summarizes one index run.
type IndexReport struct {
	RootDir  string        `json:"rootDir"`
	Indexed  int           `json:"indexed"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// IndexerService walks a codebase and turns its files into searchable
// snippets and stored patterns.
type IndexerService interface {
	// IndexCodebase indexes every supported file under rootDir.
	// Per-file failures are logged and counted, never fatal.
	IndexCodebase(ctx context.Context, rootDir string) (*IndexReport, error)
}

type indexerService struct {
	snippetRepo repository.SnippetRepository
	patternSvc  PatternService
	hashCache   repository.FileHashCache
	cfg         *config.ConfigScan
	logger      logger.Logger
}

// NewIndexerService creates an indexer service.
func NewIndexerService(
	snippetRepo repository.SnippetRepository,
	patternSvc PatternService,
	hashCache repository.FileHashCache,
	cfg *config.ConfigScan,
	logger logger.Logger,
) IndexerService {
	return &indexerService{
		snippetRepo: snippetRepo,
		patternSvc:  patternSvc,
		hashCache:   hashCache,
		cfg:         cfg,
		logger:      logger,
	}
}

// languageByExt maps file extensions to the language recorded on their
// snippets.
var languageByExt = map[string]string{
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".py":   "python",
	".go":   "go",
	".java": "java",
	".rb":   "ruby",
	".php":  "php",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".hpp":  "cpp",
	".cs":   "csharp",
	".rs":   "rust",
	".kt":   "kotlin",
	".md":   "markdown",
	".sql":  "sql",
	".sh":   "shell",
}

func (s *indexerService) IndexCodebase(ctx context.Context, rootDir string) (*IndexReport, error) {
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("cannot index %s: %w", rootDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot index %s: not a directory", rootDir)
	}

	startTime := time.Now()
	s.logger.Info("index run started for %s", rootDir)

	ignore := s.buildIgnore(rootDir)
	projectDeps := readProjectDependencies(rootDir)
	report := &IndexReport{RootDir: rootDir}

	walkErr := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.logger.Warn("failed to access %s: %v", path, err)
			return nil
		}

		relPath, relErr := filepath.Rel(rootDir, path)
		if relErr != nil {
			s.logger.Warn("failed to resolve relative path for %s: %v", path, relErr)
			return nil
		}

		if info.IsDir() {
			if relPath != "." && ignore.MatchesPath(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if report.Indexed+report.Skipped+report.Failed >= s.cfg.MaxFileCount {
			return filepath.SkipAll
		}

		if ignore.MatchesPath(relPath) {
			report.Skipped++
			metrics.FilesIndexed.WithLabelValues("skipped").Inc()
			return nil
		}

		switch indexErr := s.indexFile(ctx, rootDir, relPath, info, projectDeps); {
		case indexErr == nil:
			report.Indexed++
			metrics.FilesIndexed.WithLabelValues("indexed").Inc()
		case errs.IsSkip(indexErr):
			report.Skipped++
			metrics.FilesIndexed.WithLabelValues("skipped").Inc()
		default:
			// One bad file never stops the run.
			s.logger.Warn("failed to index %s: %v", relPath, indexErr)
			report.Failed++
			metrics.FilesIndexed.WithLabelValues("failed").Inc()
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("index walk failed: %w", walkErr)
	}

	report.Duration = time.Since(startTime)
	s.logger.Info("index run completed for %s: %d indexed, %d skipped, %d failed in %v",
		rootDir, report.Indexed, report.Skipped, report.Failed, report.Duration)

	return report, nil
}

// indexFile ingests one file: hash-cache check, snippet insert and
// pattern analysis.
func (s *indexerService) indexFile(ctx context.Context, rootDir, relPath string, info os.FileInfo, projectDeps []string) error {
	language, supported := languageByExt[strings.ToLower(filepath.Ext(relPath))]
	if !supported {
		return errs.ErrSkipFile
	}

	if info.Size() > int64(s.cfg.MaxFileSizeKB)*1024 {
		s.logger.Debug("skipping oversized file %s (%d bytes)", relPath, info.Size())
		return errs.ErrSkipFile
	}

	fullPath := filepath.Join(rootDir, relPath)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	hash := contentHash(content)
	if cached, ok, err := s.hashCache.Get(relPath); err == nil && ok && cached == hash {
		s.logger.Debug("skipping unchanged file %s", relPath)
		return errs.ErrSkipFile
	}

	text := string(content)
	analysis, err := s.patternSvc.AnalyzeCode(ctx, text, language, map[string]any{
		"source": relPath,
	})
	if err != nil {
		return err
	}

	patternNames := make([]string, 0, len(analysis))
	maxComplexity := 0
	for _, p := range analysis {
		patternNames = append(patternNames, p.Name)
		if p.Complexity > maxComplexity {
			maxComplexity = p.Complexity
		}
	}

	description := extractor.ExtractDescription(text, language)
	dependencies := extractor.ExtractDependencies(text, language)

	snippet := &model.CodeSnippet{
		FilePath:    relPath,
		Content:     text,
		Language:    language,
		Category:    categorize(relPath, language),
		Description: description,
		Metadata: map[string]any{
			"patterns":     patternNames,
			"complexity":   maxComplexity,
			"dependencies": dependencies,
			"projectDeps":  projectDeps,
			"indexedAt":    time.Now().Format(time.RFC3339),
		},
	}
	if err := s.snippetRepo.CreateSnippet(snippet); err != nil {
		return err
	}

	if err := s.hashCache.Put(relPath, hash); err != nil {
		s.logger.Warn("failed to update hash cache for %s: %v", relPath, err)
	}

	return nil
}

// buildIgnore merges the configured ignore patterns with the target
// codebase's own .gitignore.
func (s *indexerService) buildIgnore(rootDir string) *gitignore.GitIgnore {
	patterns := append([]string{}, s.cfg.FolderIgnorePatterns...)

	ignoreFilePath := filepath.Join(rootDir, ".gitignore")
	if content, err := os.ReadFile(ignoreFilePath); err == nil {
		for _, line := range bytes.Split(content, []byte{'\n'}) {
			if len(line) > 0 && !bytes.HasPrefix(line, []byte{'#'}) {
				patterns = append(patterns, string(line))
			}
		}
	} else if !os.IsNotExist(err) {
		s.logger.Warn("failed to read .gitignore in %s: %v", rootDir, err)
	}

	return gitignore.CompileIgnoreLines(patterns...)
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// categorize buckets a file by conventional path markers.
func categorize(relPath, language string) string {
	p := strings.ToLower(filepath.ToSlash(relPath))

	switch {
	case strings.Contains(p, "test") || strings.Contains(p, "spec") || strings.Contains(p, "__tests__"):
		return model.CategoryTests
	case language == "markdown":
		return model.CategoryDocumentation
	case strings.Contains(p, "model") || strings.Contains(p, "schema") || strings.Contains(p, "entity"):
		return model.CategoryModels
	case strings.Contains(p, "route") || strings.Contains(p, "controller") || strings.Contains(p, "handler") || strings.Contains(p, "api"):
		return model.CategoryRoutes
	case strings.Contains(p, "service"):
		return model.CategoryServices
	case strings.Contains(p, "view") || strings.Contains(p, "component") || strings.Contains(p, "page"):
		return model.CategoryViews
	case strings.Contains(p, "util") || strings.Contains(p, "helper") || strings.Contains(p, "lib"):
		return model.CategoryUtilities
	default:
		return model.CategoryGeneral
	}
}

// readProjectDependencies pulls declared dependencies out of a
// package.json at the codebase root, when one exists.
func readProjectDependencies(rootDir string) []string {
	content, err := os.ReadFile(filepath.Join(rootDir, "package.json"))
	if err != nil {
		return nil
	}

	var deps []string
	seen := make(map[string]bool)
	for _, section := range []string{"dependencies", "devDependencies"} {
		gjson.GetBytes(content, section).ForEach(func(key, _ gjson.Result) bool {
			name := key.String()
			if !seen[name] {
				seen[name] = true
				deps = append(deps, name)
			}
			return true
		})
	}
	return deps
}
