package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/manifoldco/promptui"

	"github.com/fpt/go-expert-panel/internal/app"
	"github.com/fpt/go-expert-panel/internal/experts"
)

var errCancelled = errors.New("cancelled")

// promptForPanel asks for a domain (unless one is set) and a topic
func promptForPanel(catalog *experts.Catalog, req *app.SessionRequest) error {
	if req.Domain == "" && len(req.CustomExperts) == 0 {
		domain, err := selectDomain(catalog)
		if err != nil {
			return err
		}
		req.Domain = domain
	}

	topic, err := readTopic()
	if err != nil {
		return err
	}
	req.Topic = topic
	return nil
}

// selectDomain shows an interactive domain selector using promptui
func selectDomain(catalog *experts.Catalog) (string, error) {
	domains := catalog.Domains()
	prompt := newDomainSelect(domains)

	i, _, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", errCancelled
		}
		return "", fmt.Errorf("domain selection failed: %w", err)
	}
	return domains[i].Key, nil
}

// readTopic reads a non-empty topic line with readline
func readTopic() (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "📝 Topic: ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return "", fmt.Errorf("failed to start prompt: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return "", errCancelled
			}
			return "", err
		}
		if topic := strings.TrimSpace(line); topic != "" {
			return topic, nil
		}
		fmt.Println("💡 Enter the topic the panel should discuss.")
	}
}

// newDomainSelect builds the promptui selector over domains
func newDomainSelect(domains []experts.Domain) *promptui.Select {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ .Name | cyan }} - {{ .Description | faint }}",
		Inactive: "  {{ .Name | cyan }} - {{ .Description | faint }}",
		Selected: "👥 {{ .Name | cyan }}",
		Details: `
--------- Experts ----------
{{ range .Experts }}{{ .Name }}
{{ end }}`,
	}

	searcher := func(input string, index int) bool {
		d := domains[index]
		name := strings.ToLower(d.Name + " " + d.Key)
		return strings.Contains(name, strings.ToLower(strings.TrimSpace(input)))
	}

	return &promptui.Select{
		Label:     "Choose an expert domain",
		Items:     domains,
		Templates: templates,
		Size:      len(domains),
		Searcher:  searcher,
	}
}
