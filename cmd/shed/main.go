// Command shed manages a table of weighted records.
//
// Usage:
//
//	shed [flags] insert <id> [weight]   insert a record; a random weight if omitted
//	shed [flags] count                  count records
//	shed [flags] cull                   remove the heaviest prime-weighted record
//	shed [flags] clear                  remove every record
//	shed [flags] events                 replay the event journal
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/shed"
	"github.com/hupe1980/shed/codec"
	"github.com/hupe1980/shed/events"
	"github.com/hupe1980/shed/internal/zlog"
	"github.com/hupe1980/shed/objstore"
	minioobj "github.com/hupe1980/shed/objstore/minio"
	s3obj "github.com/hupe1980/shed/objstore/s3"
	"github.com/hupe1980/shed/resource"
	"github.com/hupe1980/shed/store/dynamo"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/pflag"
)

const (
	exitOK           = 0
	exitServer       = 1
	exitInvalidInput = 2
	exitNotFound     = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet()
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitInvalidInput
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: shed [flags] insert|count|cull|clear|events [args]")
		fs.PrintDefaults()
		return exitInvalidInput
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		fmt.Fprintln(stderr, "shed:", err)
		return exitInvalidInput
	}

	logger := zlog.New(stderr, zlog.Format(cfg.Log.Format), zlog.ParseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return exitServer
	}
	defer a.close()

	if err := a.execute(ctx, fs.Arg(0), fs.Args()[1:], stdout); err != nil {
		logger.Error("command failed", "command", fs.Arg(0), "class", shed.Classify(err).String(), "error", err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	switch shed.Classify(err) {
	case shed.ClassNone:
		return exitOK
	case shed.ClassInvalidInput:
		return exitInvalidInput
	case shed.ClassNotFound:
		return exitNotFound
	default:
		return exitServer
	}
}

type app struct {
	shed    *shed.Shed
	journal *events.Journal
}

func newApp(ctx context.Context, cfg *Config, logger *slog.Logger) (*app, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	ctrl := resource.NewController(resource.Config{
		MaxCPUWorkers:     cfg.CPU.Workers,
		RequestsPerSecond: cfg.Scan.RequestsPerSecond,
	})

	st := dynamo.New(client, cfg.Table, func(o *dynamo.Options) {
		o.Logger = logger
		o.Controller = ctrl
		o.MaxSegments = cfg.Scan.MaxSegments
		o.Concurrency = cfg.Scan.Concurrency
		o.PageLimit = cfg.Scan.PageLimit
	})

	a := &app{}
	opts := []shed.Option{
		shed.WithLogger(shed.NewLogger(logger.Handler())),
		shed.WithController(ctrl),
	}

	objs, err := newObjectStore(ctx, cfg, awsCfg)
	if err != nil {
		return nil, err
	}
	if objs != nil {
		c, ok := codec.ByName(cfg.Journal.Codec)
		if !ok {
			return nil, fmt.Errorf("unknown journal codec %q", cfg.Journal.Codec)
		}
		a.journal, err = events.NewJournal(objs, func(o *events.JournalOptions) {
			o.Prefix = cfg.Journal.Prefix
			o.Codec = c
			o.Logger = logger
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, shed.WithPublisher(a.journal))
	}

	a.shed, err = shed.New(st, opts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newObjectStore(ctx context.Context, cfg *Config, awsCfg aws.Config) (objstore.Store, error) {
	switch cfg.Journal.Backend {
	case "local":
		return objstore.NewLocalStore(cfg.Journal.Dir), nil
	case "s3":
		return s3obj.NewStore(awss3.NewFromConfig(awsCfg), cfg.Journal.Bucket, ""), nil
	case "minio":
		client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.Secure,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MinIO client: %w", err)
		}
		exists, err := client.BucketExists(ctx, cfg.Journal.Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to reach MinIO: %w", err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, cfg.Journal.Bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Journal.Bucket, err)
			}
		}
		return minioobj.NewStore(client, cfg.Journal.Bucket, ""), nil
	default:
		return nil, nil
	}
}

func (a *app) close() {
	if a.journal != nil {
		_ = a.journal.Close()
	}
}

func (a *app) execute(ctx context.Context, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "insert":
		return a.insert(ctx, args, out)
	case "count":
		n, err := a.shed.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, n)
	case "cull":
		res, err := a.shed.Cull(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, res)
	case "clear":
		n, err := a.shed.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "cleared %d records\n", n)
	case "events":
		if a.journal == nil {
			return &shed.InvalidInputError{Field: "command", Value: cmd, Reason: "no journal configured"}
		}
		evs, err := a.journal.Replay(ctx)
		if err != nil {
			return err
		}
		for _, ev := range evs {
			fmt.Fprintf(out, "%s %s %s\n", ev.Time.Format("2006-01-02T15:04:05.000Z07:00"), ev.Type, ev.Record)
		}
	default:
		return &shed.InvalidInputError{Field: "command", Value: cmd, Reason: "unknown command"}
	}
	return nil
}

func (a *app) insert(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 || len(args) > 2 {
		return &shed.InvalidInputError{Field: "arguments", Value: fmt.Sprint(args), Reason: "want <id> [weight]"}
	}
	id, err := shed.ParseID(args[0])
	if err != nil {
		return err
	}

	if len(args) == 1 {
		rec, err := a.shed.InsertRandom(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "inserted", rec)
		return nil
	}

	w, err := shed.ParseWeight(args[1])
	if err != nil {
		return err
	}
	rec, err := a.shed.Insert(ctx, id, w)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "inserted", rec)
	return nil
}
