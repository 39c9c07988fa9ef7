// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Account and session operations",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and store the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "password",
						Usage: "Account password (prompted when omitted)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "password",
						Usage: "Account password (prompted when omitted)",
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "End the session and clear the stored token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the current session",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.AuthStatus,
			},
			{
				Name:  "verify",
				Usage: "Redeem an email verification token",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "token"},
				},
				Action: r.AuthVerify,
			},
			{
				Name:   "resend",
				Usage:  "Re-send the verification email",
				Action: r.AuthResend,
			},
			{
				Name:  "reset-request",
				Usage: "Request a password reset email",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
				},
				Action: r.AuthResetRequest,
			},
			{
				Name:  "reset",
				Usage: "Set a new password with a reset token",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "token"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "password",
						Usage: "New password (prompted when omitted)",
					},
				},
				Action: r.AuthReset,
			},
			{
				Name:  "prefs",
				Usage: "Update processing preferences",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "theme", Usage: "UI theme"},
					&cli.StringFlag{Name: "style", Usage: "Default processing style"},
					&cli.FloatFlag{Name: "strength", Usage: "Default processing strength", Value: 0.5},
					&cli.BoolFlag{Name: "motion", Usage: "Enable motion analysis"},
					&cli.BoolFlag{Name: "continuity", Usage: "Enable continuity analysis"},
				},
				Action: r.AuthPrefs,
			},
		},
	}
}

// jobsCommand handles job monitoring operations
func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "jobs",
		Aliases: []string{"j"},
		Usage:   "Processing job operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List active jobs, falling back to the local cache offline",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.JobsList,
			},
			{
				Name:  "export",
				Usage: "Export the active-jobs list to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown, txt",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "jobs.csv",
					},
				},
				Action: r.JobsExport,
			},
			{
				Name:  "status",
				Usage: "Show a single job",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.JobsStatus,
			},
			{
				Name:  "watch",
				Usage: "Poll a job until it completes or fails",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.JobsWatch,
			},
			{
				Name:  "cancel",
				Usage: "Cancel a pending or processing job",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.JobsCancel,
			},
			{
				Name:  "priority",
				Usage: "Move a queued job up or down",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "direction"},
				},
				Action: r.JobsPriority,
			},
		},
	}
}

// videosCommand handles upload and processing operations
func videosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "videos",
		Aliases: []string{"v"},
		Usage:   "Upload and process videos",
		Commands: []*cli.Command{
			{
				Name:  "upload",
				Usage: "Upload a local video file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "watch", Usage: "Watch the resulting job", Value: true},
				},
				Action: r.VideoUpload,
			},
			{
				Name:  "bulk",
				Usage: "Upload many videos concurrently",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Usage: "Concurrent uploads", Value: 3},
					&cli.FloatFlag{Name: "rate", Usage: "Uploads per second", Value: 1},
					&cli.BoolFlag{Name: "process", Usage: "Start processing after each upload"},
					&cli.StringFlag{Name: "style", Usage: "Processing style", Value: "default"},
				},
				Action: r.VideoBulkUpload,
			},
			{
				Name:  "process",
				Usage: "Start a processing job for an uploaded video",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "style", Usage: "Processing style", Value: "default"},
					&cli.FloatFlag{Name: "strength", Usage: "Processing strength", Value: 0.5},
					&cli.StringFlag{Name: "transitions", Usage: "Transition style"},
					&cli.BoolFlag{Name: "detect-scenes", Usage: "Detect scene boundaries", Value: true},
					&cli.BoolFlag{Name: "analyze-content", Usage: "Run content analysis"},
					&cli.BoolFlag{Name: "optimize-scenes", Usage: "Optimize scene selection"},
					&cli.BoolFlag{Name: "watch", Usage: "Watch the resulting job", Value: true},
				},
				Action: r.VideoProcess,
			},
			{
				Name:  "analyze",
				Usage: "Start an analysis job for an uploaded video",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "detect-scenes", Usage: "Detect scene boundaries", Value: true},
					&cli.BoolFlag{Name: "analyze-content", Usage: "Run content analysis", Value: true},
					&cli.BoolFlag{Name: "motion", Usage: "Run motion analysis"},
					&cli.BoolFlag{Name: "continuity", Usage: "Run continuity analysis"},
					&cli.FloatFlag{Name: "min-continuity", Usage: "Minimum object continuity", Value: 0.5},
					&cli.BoolFlag{Name: "watch", Usage: "Watch the resulting job", Value: true},
				},
				Action: r.VideoAnalyze,
			},
		},
	}
}

// tuiCommand launches the interactive dashboard
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"ui"},
		Usage:   "Interactive dashboard for monitoring jobs",
		Action:  r.TUI,
	}
}
