// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/studyctl/internal/meta"
)

const bashCompletionScript = `# bash completion for studyctl
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_studyctl()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "dashboard timetables status start pause resume end today stats notes timer completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local conn="--url --token --examples --tldr"
    local common="$conn --attrs -a --color -c --filter -f --local --output -o --sort -s --titles -t"

    case "$cmd" in
        dashboard)
            local opts="$common --weekly -w"
            ;;
        timetables)
            local opts="$common --active"
            ;;
        start)
            local opts="$common --target"
            ;;
        end)
            local opts="$common --actual --target --notes -n"
            ;;
        stats)
            local opts="$common --period -p"
            ;;
        notes)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "list add edit rm" -- "$cur") )
                return 0
            fi
            local opts="$common --search --subject --page --limit -l --title --content"
            ;;
        timer)
            local opts="$conn --target"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

    if [[ "$prev" == "--period" || "$prev" == "-p" ]]; then
        COMPREPLY=( $(compgen -W "day week month year" -- "$cur") )
        return 0
    fi

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _studyctl studyctl
`

const zshCompletionScript = `#compdef studyctl

_studyctl() {
  local -a cmds
  cmds=(
    'dashboard:show the study summary'
    'timetables:list timetables'
    'status:show the session in progress'
    'start:start a study session'
    'pause:pause the session in progress'
    'resume:resume a paused session'
    'end:end the session in progress'
    'today:list the sessions completed today'
    'stats:show study time per subject for a period'
    'notes:manage study notes'
    'timer:run an interactive session timer'
    'completion:generate shell completion script'
  )

  local -a conn
  conn=(
  '--url[base URL of the study API]:url'
  '--token[bearer token]:token'
  '--examples[show usage examples]'
  '--tldr[show tldr page]'
  )

  local -a common
  common=(
  $conn
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '--local[show timestamps in the configured timezone]'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'studyctl commands' cmds
    return
  fi

  case $words[2] in
    dashboard)
      _arguments -C $common '(-w --weekly)'{-w,--weekly}'[minutes per day]'
      ;;
    timetables)
      _arguments -C $common '--active[entries of the active timetable]'
      ;;
    start)
      _arguments -C $common '--target[target minutes]:minutes' '1:subject'
      ;;
    end)
      _arguments -C $common \
        '--actual[minutes studied]:minutes' \
        '--target[target minutes]:minutes' \
        '(-n --notes)'{-n,--notes}'[session notes]:notes'
      ;;
    stats)
      _arguments -C $common '(-p --period)'{-p,--period}'[period]:period:(day week month year)'
      ;;
    notes)
      _arguments -C \
        '1:action:(list add edit rm)' \
        $common \
        '--search[search text]:text' \
        '--subject[subject]:subject' \
        '--page[page]:page' \
        '(-l --limit)'{-l,--limit}'[notes per page]:limit' \
        '--title[title]:title' \
        '--content[content]:content'
      ;;
    timer)
      _arguments -C $conn '--target[target minutes]:minutes' '1:subject'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _studyctl studyctl
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	if shell == "" {
		// Try to detect from SHELL.
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			shell = "zsh"
		case strings.HasSuffix(sh, "bash"):
			shell = "bash"
		}
	}

	switch shell {
	case "bash":
		fmt.Fprint(stdout(cmd), bashCompletionScript)
	case "zsh":
		fmt.Fprint(stdout(cmd), zshCompletionScript)
	default:
		fmt.Fprintln(stderr(cmd), "usage: studyctl completion [bash|zsh]")
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "studyctl completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
