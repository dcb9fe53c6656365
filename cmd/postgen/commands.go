package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/generation"
	"github.com/sakif/postgen/internal/present"
	"github.com/sakif/postgen/internal/profile"
	"github.com/sakif/postgen/internal/session"
)

var errUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// userMessage picks the text to show for a failed command.
func userMessage(err error) string {
	return apperror.Message(err, "Something went wrong. Please try again.")
}

// exactlyOneID is a cobra.PositionalArgs that reports bad usage.
func exactlyOneID(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usageError("%s takes exactly one post id", cmd.Name())
	}
	return nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError("%s: unexpected argument %q", cmd.Name(), args[0])
	}
	return nil
}

// rootCmd builds a fresh command tree, so flag values never leak between
// runs.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "postgen",
		Short:         "Generate social media posts from a prompt",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Unknown subcommands land here instead of cobra's own error, so
		// they are reported as usage errors.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError("no command given")
			}
			return usageError("unknown command %q", args[0])
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError("%s: %v", cmd.Name(), err)
	})

	root.AddCommand(
		a.signupCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.generateCmd(),
		a.postsCmd(),
		a.postCmd(),
		a.deletePostCmd(),
		a.profileCmd(),
		a.profileUpdateCmd(),
		a.deleteAccountCmd(),
	)
	return root
}

func (a *app) signupCmd() *cobra.Command {
	var form session.SignupForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = form.Password
			}
			sess, err := a.sessions.Signup(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Welcome, %s! Signed in as %s.\n", strings.TrimSpace(form.Name), sess.UserID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.Email, "email", "", "email address")
	f.StringVar(&form.Name, "name", "", "display name")
	f.StringVar(&form.Username, "username", "", "username")
	f.StringVar(&form.Password, "password", "", "password")
	f.StringVar(&form.ConfirmPassword, "confirm", "", "password again (defaults to --password)")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.sessions.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in as %s.\n", sess.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out on this device",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.sessions.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in user id",
		Args:  noArgs,
		RunE: func(*cobra.Command, []string) error {
			sess, err := a.sessions.Require()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, sess.UserID)
			return nil
		},
	}
}

func (a *app) generateCmd() *cobra.Command {
	var (
		prompt    string
		platforms []string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate content for one or more platforms",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var selected []string
			for _, p := range platforms {
				if p = strings.TrimSpace(p); p != "" {
					selected = append(selected, p)
				}
			}

			req, err := generation.NewRequest(prompt, selected)
			if err != nil {
				return err
			}
			result, err := a.gen.Submit(cmd.Context(), req)
			if err != nil {
				return err
			}

			if err := present.WriteCards(a.out, present.Cards(result, req.Platforms)); err != nil {
				return err
			}
			if missing := a.gen.State().Missing; len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, p := range missing {
					names = append(names, p.Label())
				}
				fmt.Fprintf(a.out, "\nNot generated: %s\n", strings.Join(names, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "what the post is about")
	cmd.Flags().StringSliceVar(&platforms, "platforms", nil, "x, instagram, linkedin, facebook (comma separated)")
	return cmd
}

func (a *app) postsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "posts",
		Short: "List past posts, newest first",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			posts, err := a.posts.ListPosts(cmd.Context())
			if err != nil {
				return err
			}
			if len(posts) == 0 {
				fmt.Fprintln(a.out, "No posts yet.")
				return nil
			}
			return present.WriteSummaries(a.out, posts, a.loc)
		},
	}
}

func (a *app) postCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <id>",
		Short: "Show one post",
		Args:  exactlyOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.posts.GetPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Prompt: %s\n\n", p.Prompt)
			return present.WriteCards(a.out, present.PostCards(p))
		},
	}
}

func (a *app) deletePostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-post <id>",
		Short: "Delete one post",
		Args:  exactlyOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.posts.DeletePost(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Post deleted.")
			return nil
		},
	}
}

func (a *app) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.profile.Load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Name:     %s\nUsername: %s\nEmail:    %s\n", u.Name, u.Username, u.Email)
			return nil
		},
	}
}

// profileUpdateCmd starts from the stored profile, so only the flags given
// change anything.
func (a *app) profileUpdateCmd() *cobra.Command {
	var email, name, username, newPassword, currentPassword string
	cmd := &cobra.Command{
		Use:   "profile-update",
		Short: "Change profile fields or password",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			original, err := a.profile.Load(ctx)
			if err != nil {
				return err
			}

			edit := profile.Edit{
				Email:           original.Email,
				Name:            original.Name,
				Username:        original.Username,
				NewPassword:     newPassword,
				CurrentPassword: currentPassword,
			}
			f := cmd.Flags()
			if f.Changed("email") {
				edit.Email = email
			}
			if f.Changed("name") {
				edit.Name = name
			}
			if f.Changed("username") {
				edit.Username = username
			}

			updated, err := a.profile.Update(ctx, original, edit)
			if err != nil {
				return err
			}
			if updated == original && newPassword == "" {
				fmt.Fprintln(a.out, "Nothing to update.")
				return nil
			}
			fmt.Fprintln(a.out, "Profile updated.")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&email, "email", "", "new email address")
	f.StringVar(&name, "name", "", "new display name")
	f.StringVar(&username, "username", "", "new username")
	f.StringVar(&newPassword, "new-password", "", "new password")
	f.StringVar(&currentPassword, "current-password", "", "current password, required with --new-password")
	return cmd
}

func (a *app) deleteAccountCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete your account and every post",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return usageError("delete-account removes your account and every post; pass --yes to confirm")
			}
			if err := a.profile.DeleteAccount(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Account deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
