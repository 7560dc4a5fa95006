// Command queuectl is the control surface for a durable job queue: a
// thin CLI wrapper around the store.Repository plus the Worker and
// Supervisor process lifecycle.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"oss.nandlabs.io/golly/cli"

	"github.com/queuectl/queuectl"
	"github.com/queuectl/queuectl/config"
	"github.com/queuectl/queuectl/job"
	"github.com/queuectl/queuectl/store"
)

const (
	exitOK = iota
	_
	exitInvalid
	exitDuplicate
	exitNotDead
	exitNotFound
)

const (
	dbFileName     = "queue.db"
	configFileName = "queue_config.json"
	logsDirName    = "logs"
)

func main() {
	os.Exit(run())
}

func run() int {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	app := cli.NewCLI()
	app.AddVersion("1.0.0")

	app.AddCommand(enqueueCommand(log))
	app.AddCommand(workerCommand(log))
	app.AddCommand(statusCommand(log))
	app.AddCommand(listCommand(log))
	app.AddCommand(dlqCommand(log))
	app.AddCommand(logsCommand(log))
	app.AddCommand(metricsCommand(log))
	app.AddCommand(configCommand(log))
	app.AddCommand(resetCommand(log))
	app.AddCommand(pruneCommand(log))

	if err := app.Execute(); err != nil {
		if code, ok := err.(exitError); ok {
			return int(code)
		}
		fmt.Fprintln(os.Stderr, err)
		return exitCodeFor(err)
	}
	return exitOK
}

func exitCodeFor(err error) int {
	switch {
	case err == queuectl.ErrInvalidSpec:
		return exitInvalid
	case err == queuectl.ErrDuplicateID:
		return exitDuplicate
	case err == queuectl.ErrNotDead:
		return exitNotDead
	case err == queuectl.ErrNotFound:
		return exitNotFound
	default:
		return 1
	}
}

func openRepository(ctx context.Context) (*store.DB, *store.Repository, error) {
	db, err := store.Open(ctx, dbFileName)
	if err != nil {
		return nil, nil, err
	}
	return db, store.NewRepository(db), nil
}

func enqueueCommand(log *slog.Logger) *cli.Command {
	return cli.NewCommand("enqueue", "insert a new job", "", func(ctx *cli.Context) error {
		args := os.Args
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: queuectl enqueue '<json spec>'")
			return errExit(exitInvalid)
		}
		raw := args[len(args)-1]

		var input struct {
			ID             string   `json:"id"`
			Command        string   `json:"command"`
			MaxRetries     *uint32  `json:"max_retries"`
			BaseBackoff    *float64 `json:"base_backoff"`
			Priority       int32    `json:"priority"`
			TimeoutSeconds float64  `json:"timeout_seconds"`
			RunAt          *string  `json:"run_at"`
		}
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			fmt.Fprintln(os.Stderr, "invalid enqueue spec:", err)
			return errExit(exitInvalid)
		}

		cfg, err := config.Load(configFileName)
		if err != nil {
			return err
		}
		if input.MaxRetries == nil {
			input.MaxRetries = &cfg.MaxRetries
		}
		if input.BaseBackoff == nil {
			input.BaseBackoff = &cfg.BaseBackoff
		}
		if input.TimeoutSeconds == 0 && cfg.DefaultTimeoutSeconds != nil {
			input.TimeoutSeconds = *cfg.DefaultTimeoutSeconds
		}

		spec := queuectl.JobSpec{
			ID:             input.ID,
			Command:        input.Command,
			MaxRetries:     input.MaxRetries,
			BaseBackoff:    input.BaseBackoff,
			Priority:       input.Priority,
			TimeoutSeconds: input.TimeoutSeconds,
		}
		if input.RunAt != nil {
			t, err := time.Parse(time.RFC3339, *input.RunAt)
			if err != nil {
				fmt.Fprintln(os.Stderr, "invalid run_at:", err)
				return errExit(exitInvalid)
			}
			spec.RunAt = &t
		}

		background := context.Background()
		db, repo, err := openRepository(background)
		if err != nil {
			return err
		}
		defer db.Close()

		jb, err := repo.Enqueue(background, spec)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			switch err {
			case queuectl.ErrInvalidSpec:
				return errExit(exitInvalid)
			case queuectl.ErrDuplicateID:
				return errExit(exitDuplicate)
			default:
				return err
			}
		}
		enc, _ := json.Marshal(jb)
		fmt.Println(string(enc))
		return nil
	})
}

func workerCommand(log *slog.Logger) *cli.Command {
	root := cli.NewCommand("worker", "manage worker processes", "", func(ctx *cli.Context) error {
		return fmt.Errorf("worker requires a subcommand: start, run-one")
	})

	start := cli.NewCommand("start", "spawn a pool of worker processes", "", func(ctx *cli.Context) error {
		count := 1
		if v, ok := ctx.GetFlag("count"); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			count = n
		}
		idleTimeout := 60 * time.Second
		if v, ok := ctx.GetFlag("idle-timeout"); ok && v != "" {
			secs, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			idleTimeout = time.Duration(secs * float64(time.Second))
		}

		sup := queuectl.NewSupervisor(os.Args[0], queuectl.SupervisorConfig{
			Count:       count,
			IdleTimeout: idleTimeout,
		}, log)
		return sup.Run(context.Background())
	})
	start.Flags = append(start.Flags, &cli.Flag{Name: "count", Default: "1", Usage: "number of workers"})
	start.Flags = append(start.Flags, &cli.Flag{Name: "idle-timeout", Default: "60", Usage: "idle seconds before a worker exits"})
	root.AddSubCommand(start)

	runOne := cli.NewCommand("run-one", "run a single worker loop in the foreground", "", func(ctx *cli.Context) error {
		id, _ := ctx.GetFlag("id")
		if id == "" {
			id = "worker-" + uuid.NewString()
		}
		cfg, err := config.Load(configFileName)
		if err != nil {
			return err
		}
		idleTimeout := time.Duration(cfg.IdleTimeout * float64(time.Second))
		if v, ok := ctx.GetFlag("idle-timeout"); ok && v != "" {
			secs, err := strconv.ParseFloat(v, 64)
			if err == nil {
				idleTimeout = time.Duration(secs * float64(time.Second))
			}
		}

		background := context.Background()
		db, repo, err := openRepository(background)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := os.MkdirAll(logsDirName, 0o755); err != nil {
			return err
		}
		executor := queuectl.NewExecutor(logsDirName)
		w := queuectl.NewWorker(id, repo, executor, queuectl.WorkerConfig{
			IdleTimeout:  idleTimeout,
			PollInterval: time.Duration(cfg.PollInterval * float64(time.Second)),
		}, log)
		if err := w.Start(); err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		return w.Stop()
	})
	runOne.Flags = append(runOne.Flags, &cli.Flag{Name: "id", Default: "", Usage: "worker id"})
	runOne.Flags = append(runOne.Flags, &cli.Flag{Name: "idle-timeout", Default: "60", Usage: "idle seconds before exit"})
	root.AddSubCommand(runOne)

	return root
}

func statusCommand(log *slog.Logger) *cli.Command {
	return cli.NewCommand("status", "print per-state job counts", "", func(ctx *cli.Context) error {
		background := context.Background()
		db, repo, err := openRepository(background)
		if err != nil {
			return err
		}
		defer db.Close()
		summary, err := repo.StatusSummary(background)
		if err != nil {
			return err
		}
		fmt.Printf("pending=%d processing=%d completed=%d dead=%d\n",
			summary.Pending, summary.Processing, summary.Completed, summary.Dead)
		return nil
	})
}

func listCommand(log *slog.Logger) *cli.Command {
	cmd := cli.NewCommand("list", "list jobs, optionally filtered by state", "", func(ctx *cli.Context) error {
		state := job.Unknown
		if v, ok := ctx.GetFlag("state"); ok && v != "" {
			s, err := job.ParseState(v)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return errExit(exitInvalid)
			}
			state = s
		}
		background := context.Background()
		db, repo, err := openRepository(background)
		if err != nil {
			return err
		}
		defer db.Close()
		jobs, err := repo.List(background, state)
		if err != nil {
			return err
		}
		for _, jb := range jobs {
			fmt.Printf("%s\t%s\t%s\n", jb.ID, jb.State, jb.Command)
		}
		return nil
	})
	cmd.Flags = append(cmd.Flags, &cli.Flag{Name: "state", Default: "", Usage: "filter by state"})
	return cmd
}

func dlqCommand(log *slog.Logger) *cli.Command {
	root := cli.NewCommand("dlq", "inspect and retry dead-lettered jobs", "", func(ctx *cli.Context) error {
		return fmt.Errorf("dlq requires a subcommand: list, retry")
	})

	list := cli.NewCommand("list", "list dead jobs", "", func(ctx *cli.Context) error {
		background := context.Background()
		db, repo, err := openRepository(background)
		if err != nil {
			return err
		}
		defer db.Close()
		jobs, err := repo.List(background, job.Dead)
		if err != nil {
			return err
		}
		for _, jb := range jobs {
			fmt.Printf("%s\t%s\t%s\n", jb.ID, jb.LastError, jb.Command)
		}
		return nil
	})
	root.AddSubCommand(list)

	retry := cli.NewCommand("retry", "retry a dead job", "", func(ctx *cli.Context) error {
		args := os.Args
		if len(args) < 4 {
			fmt.Fprintln(os.Stderr, "usage: queuectl dlq retry <id>")
			return errExit(exitInvalid)
		}
		id := args[len(args)-1]
		background := context.Background()
		db, repo, err := openRepository(background)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repo.DLQRetry(background, id, time.Now().UTC()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			switch err {
			case queuectl.ErrNotDead:
				return errExit(exitNotDead)
			case queuectl.ErrNotFound:
				return errExit(exitNotFound)
			default:
				return err
			}
		}
		return nil
	})
	root.AddSubCommand(retry)

	return root
}

func logsCommand(log *slog.Logger) *cli.Command {
	cmd := cli.NewCommand("logs", "print the tail of a job's log file", "", func(ctx *cli.Context) error {
		args := os.Args
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: queuectl logs <id> [--tail N]")
			return errExit(exitInvalid)
		}
		id := args[2]
		tail := 100
		if v, ok := ctx.GetFlag("tail"); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err == nil {
				tail = n
			}
		}
		path := filepath.Join(logsDirName, job.LogFileName(id))
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return errExit(exitNotFound)
		}
		defer f.Close()

		var lines []string
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
			if len(lines) > tail {
				lines = lines[1:]
			}
		}
		fmt.Println(strings.Join(lines, "\n"))
		return nil
	})
	cmd.Flags = append(cmd.Flags, &cli.Flag{Name: "tail", Default: "100", Usage: "number of trailing lines"})
	return cmd
}

func metricsCommand(log *slog.Logger) *cli.Command {
	return cli.NewCommand("metrics", "print aggregate queue statistics", "", func(ctx *cli.Context) error {
		background := context.Background()
		db, repo, err := openRepository(background)
		if err != nil {
			return err
		}
		defer db.Close()
		m, err := repo.Metrics(background)
		if err != nil {
			return err
		}
		fmt.Printf("total=%d completed=%d dead=%d mean_attempts=%.2f mean_duration_s=%.2f\n",
			m.Total, m.Completed, m.Dead, m.MeanAttempts, m.MeanDuration)
		return nil
	})
}

func configCommand(log *slog.Logger) *cli.Command {
	root := cli.NewCommand("config", "view or change queue_config.json", "", func(ctx *cli.Context) error {
		return fmt.Errorf("config requires a subcommand: set")
	})

	set := cli.NewCommand("set", "set a single config key", "", func(ctx *cli.Context) error {
		args := os.Args
		if len(args) < 4 {
			fmt.Fprintln(os.Stderr, "usage: queuectl config set <key> <val>")
			return errExit(exitInvalid)
		}
		key, val := args[len(args)-2], args[len(args)-1]

		cfg, err := config.Load(configFileName)
		if err != nil {
			return err
		}
		if err := config.Set(&cfg, key, val); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return errExit(exitInvalid)
		}
		return config.Save(configFileName, cfg)
	})
	root.AddSubCommand(set)

	return root
}

func resetCommand(log *slog.Logger) *cli.Command {
	return cli.NewCommand("reset", "back up and reinitialize the store", "", func(ctx *cli.Context) error {
		fmt.Print("this deletes queue.db and logs/ after taking a backup. continue? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("aborted")
			return nil
		}

		stamp := time.Now().UTC().Format("20060102T150405Z")
		backupDir := "backup_" + stamp
		if err := os.MkdirAll(backupDir, 0o755); err != nil {
			return err
		}
		if _, err := os.Stat(dbFileName); err == nil {
			if err := copyFile(dbFileName, filepath.Join(backupDir, dbFileName)); err != nil {
				return err
			}
		}
		if _, err := os.Stat(logsDirName); err == nil {
			if err := os.Rename(logsDirName, filepath.Join(backupDir, logsDirName)); err != nil {
				return err
			}
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			os.Remove(dbFileName + suffix)
		}

		background := context.Background()
		db, _, err := openRepository(background)
		if err != nil {
			return err
		}
		return db.Close()
	})
}

func pruneCommand(log *slog.Logger) *cli.Command {
	cmd := cli.NewCommand("prune", "delete old completed/dead jobs", "", func(ctx *cli.Context) error {
		state := job.Unknown
		if v, ok := ctx.GetFlag("state"); ok && v != "" {
			s, err := job.ParseState(v)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return errExit(exitInvalid)
			}
			state = s
		}
		var before *time.Time
		if v, ok := ctx.GetFlag("before"); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return errExit(exitInvalid)
			}
			t := time.Now().UTC().Add(-d)
			before = &t
		}

		background := context.Background()
		db, repo, err := openRepository(background)
		if err != nil {
			return err
		}
		defer db.Close()

		count, err := repo.Prune(background, state, before)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return errExit(exitInvalid)
		}
		fmt.Printf("pruned %d jobs\n", count)
		return nil
	})
	cmd.Flags = append(cmd.Flags, &cli.Flag{Name: "state", Default: "", Usage: "completed or dead"})
	cmd.Flags = append(cmd.Flags, &cli.Flag{Name: "before", Default: "", Usage: "only rows older than this duration"})
	return cmd
}

type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit %d", int(e)) }

func errExit(code int) error { return exitError(code) }

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

