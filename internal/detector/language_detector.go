package detector

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	".git":         true,
	"bin":          true,
	"obj":          true,
	"devTools":     true,
	".venv":        true,
}

// DetectLanguages scans a directory and detects the primary programming language of each subdirectory
func DetectLanguages(rootPath string) (map[string]string, error) {
	directories, err := collectLanguagesByDirectory(rootPath)
	if err != nil {
		return nil, err
	}

	return determinePrimaryLanguages(directories), nil
}

// collectLanguagesByDirectory walks the file tree and counts languages by directory
func collectLanguagesByDirectory(rootPath string) (map[string]map[string]int, error) {
	directories := make(map[string]map[string]int) // dir -> language -> count

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != rootPath && skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip hidden files
		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		processSourceFile(path, rootPath, directories)
		return nil
	})

	return directories, err
}

// processSourceFile updates the language count for the file's directory
func processSourceFile(filePath, rootPath string, directories map[string]map[string]int) {
	lang := detectFileLanguage(filePath)
	if lang == "" || !isProgrammingLanguage(lang) {
		return
	}

	dir := filepath.Dir(filePath)
	relDir, _ := filepath.Rel(rootPath, dir)
	if relDir == "." {
		relDir = "root"
	}

	if directories[relDir] == nil {
		directories[relDir] = make(map[string]int)
	}
	directories[relDir][lang]++
}

// determinePrimaryLanguages finds the most common language in each directory
func determinePrimaryLanguages(directories map[string]map[string]int) map[string]string {
	dirToLangMap := make(map[string]string)
	for dir, langCounts := range directories {
		if lang := findMostCommonLanguage(langCounts); lang != "" {
			dirToLangMap[dir] = lang
		}
	}
	return dirToLangMap
}

// findMostCommonLanguage returns the language with the highest count, ties broken by name
func findMostCommonLanguage(langCounts map[string]int) string {
	primaryLang := ""
	maxCount := 0
	for lang, count := range langCounts {
		if count > maxCount || (count == maxCount && lang < primaryLang) {
			maxCount = count
			primaryLang = lang
		}
	}
	return primaryLang
}

// isProgrammingLanguage filters out configuration, markup, and documentation languages
func isProgrammingLanguage(lang string) bool {
	return enry.GetLanguageType(lang) == enry.Programming
}

func detectFileLanguage(path string) string {
	lang, safe := enry.GetLanguageByExtension(path)
	if safe && lang != "" {
		return lang
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	return enry.GetLanguage(path, content)
}
