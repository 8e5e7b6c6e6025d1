// Package runner 依次处理设备列表: 分类、选择命令、执行、落盘。
// 单台设备的任何失败都只影响该设备。
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wentf9/showcmd/pkg/classifier"
	"github.com/wentf9/showcmd/pkg/commands"
	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/executor"
	"github.com/wentf9/showcmd/pkg/logger"
	"github.com/wentf9/showcmd/pkg/models"
	"github.com/wentf9/showcmd/pkg/reach"
	"github.com/wentf9/showcmd/pkg/storage"
)

// Recorder 记录每台设备的处理结果
type Recorder interface {
	Record(o models.Outcome) error
}

// Progress 批量处理进度展示
type Progress interface {
	Describe(description string)
	Add(num int) error
	Finish() error
}

// Job 一次批量采集任务
type Job struct {
	Targets []models.Target
	// Classify 为 true 时根据地址推断每台设备的平台，忽略 Target.Platform
	Classify bool
	// Adhoc 非空时所有设备只执行这一条命令
	Adhoc string
	Note  string
}

// Runner 批量处理的各个环节，可选环节为 nil 时跳过
type Runner struct {
	Classifier *classifier.Classifier
	Commands   *commands.Table
	Executor   *executor.Executor
	Writer     *storage.LocalWriter

	Checker  reach.Checker
	Mirror   storage.Mirror
	Recorder Recorder
	Progress Progress

	// Out 面向操作者的输出
	Out io.Writer
	// Now 返回当前时间，用于文件名中的日期
	Now func() time.Time
}

// Report 本次运行的汇总
type Report struct {
	Outcomes []models.Outcome
}

// Count 返回某种状态的设备数
func (r *Report) Count(s models.Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Summary 一行汇总信息
func (r *Report) Summary() string {
	return fmt.Sprintf("%d device(s): %d written, %d skipped, %d failed",
		len(r.Outcomes), r.Count(models.StatusWritten), r.Count(models.StatusSkipped), r.Count(models.StatusFailed))
}

// Run 按顺序处理所有设备。只有输出目录无法创建时返回错误(ConfigError)，
// 设备级错误都记录在 Report 中
func (r *Runner) Run(ctx context.Context, creds models.Credentials, job Job) (*Report, error) {
	if err := r.Writer.EnsureDir(); err != nil {
		return nil, errs.Configf("%w", err)
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	date := now()
	r.printf("===== Date is %s ====\n", date.Format(storage.DateLayout))

	report := &Report{Outcomes: make([]models.Outcome, 0, len(job.Targets))}
	for _, target := range job.Targets {
		if ctx.Err() != nil {
			logger.Logger.Warnf("batch interrupted, %d device(s) not processed", len(job.Targets)-len(report.Outcomes))
			break
		}
		if r.Progress != nil {
			r.Progress.Describe(target.Address)
		}

		o := r.process(ctx, creds, job, target, date)
		report.Outcomes = append(report.Outcomes, o)

		if r.Recorder != nil {
			if err := r.Recorder.Record(o); err != nil {
				logger.WithDevice(target.Address).WithError(err).Warn("failed to record outcome")
			}
		}
		if r.Progress != nil {
			_ = r.Progress.Add(1)
		}
	}
	if r.Progress != nil {
		_ = r.Progress.Finish()
	}
	r.printf("\n%s\n", report.Summary())
	return report, nil
}

func (r *Runner) process(ctx context.Context, creds models.Credentials, job Job, target models.Target, date time.Time) models.Outcome {
	log := logger.WithDevice(target.Address)
	r.printf("\n===============  Device %s ===============\n", target.Address)

	if job.Classify && r.Classifier != nil {
		c := r.Classifier.Classify(target.Address)
		target.Platform = c.Platform
		creds = c.Override.Apply(creds)
		log.WithField("rule", c.Rule).Debugf("classified as %s", c.Platform)
	}
	o := models.Outcome{Target: target}

	cmds, err := r.Commands.Select(target, job.Adhoc)
	if err != nil {
		o.Status = models.StatusSkipped
		o.Err = err
		r.printf("\n\n\txxx Skip Device %s Type %s\n", target.Address, target.Platform)
		log.WithError(err).Info("device skipped")
		return o
	}

	if r.Checker != nil {
		if err := r.Checker.Check(ctx, target); err != nil {
			o.Status = models.StatusFailed
			o.Err = err
			r.printf("ERROR! %v\n", err)
			log.WithError(err).Error("reachability check failed")
			return o
		}
	}

	res := r.Executor.Run(ctx, target, creds, cmds)
	o.CommandsRun = len(res.Outputs)
	o.CommandsFailed = res.Failed()
	if !res.OK() {
		o.Status = models.StatusFailed
		o.Err = res.Err
		return o
	}
	// 中断时输出不完整，不写文件
	if err := ctx.Err(); err != nil {
		o.Status = models.StatusFailed
		o.Err = fmt.Errorf("collection from %s interrupted: %w", target.Address, err)
		r.printf("ERROR! %v\n", o.Err)
		log.WithError(err).Warn("interrupted, output discarded")
		return o
	}

	name := storage.FileName(target.Address, date, job.Note)
	text := res.Text()
	path, err := r.Writer.Write(name, text)
	if err != nil {
		o.Status = models.StatusFailed
		o.Err = err
		r.printf("ERROR! %v\n", err)
		log.WithError(err).Error("failed to save output")
		return o
	}
	o.Status = models.StatusWritten
	o.File = path
	if o.CommandsFailed > 0 {
		o.Err = firstCommandError(res)
	}
	r.printf("\nSaving show command output to %s\n\n", path)

	if r.Mirror != nil {
		uri, err := r.Mirror.Upload(ctx, name, text)
		if err != nil {
			r.printf("WARNING! %v\n", err)
			log.WithError(err).Warn("mirror upload failed, local file kept")
		} else {
			log.Debugf("mirrored to %s", uri)
		}
	}
	return o
}

func firstCommandError(res *executor.Result) error {
	var msgs []string
	for _, out := range res.Outputs {
		if out.Err != nil {
			msgs = append(msgs, out.Command)
		}
	}
	return errors.New("failed commands: " + strings.Join(msgs, ", "))
}

func (r *Runner) printf(format string, args ...any) {
	if r.Out != nil {
		fmt.Fprintf(r.Out, format, args...)
	}
}
