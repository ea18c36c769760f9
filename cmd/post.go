package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/devlog/internal/activity"
	"github.com/rnwolfe/devlog/internal/ui"
)

var (
	postCategory string
	postProject  string
	postMinutes  int
	postLink     string
	postLimit    int

	postEditContent  string
	postEditCategory string
	postEditProject  string
	postEditMinutes  int
	postEditLink     string
)

var postCmd = &cobra.Command{
	Use:     "post",
	Aliases: []string{"p"},
	Short:   "Write, edit, and list dev log posts",
	RunE:    runPostList,
}

var postAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Log what you worked on",
	Long: `Create a post. The post's creation time is the activity that counts
toward your streak and the active challenge.

Examples:
  devlog post add "wired the postgres store" --category coding --minutes 90
  devlog post add "read the pgx docs" -c study --project devlog`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPostAdd,
}

var postEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a post's text or metadata",
	Long:  `Edit a post. Only the given flags change; the post keeps its original date.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPostEdit,
}

var postRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a post and recompute your streak",
	Args:    cobra.ExactArgs(1),
	RunE:    runPostRm,
}

var postListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show your recent posts",
	RunE:    runPostList,
}

func init() {
	postCmd.AddCommand(postAddCmd)
	postCmd.AddCommand(postEditCmd)
	postCmd.AddCommand(postRmCmd)
	postCmd.AddCommand(postListCmd)

	categories := "Category (" + strings.Join(activity.Categories, ", ") + ")"
	postAddCmd.Flags().StringVarP(&postCategory, "category", "c", "coding", categories)
	postAddCmd.Flags().StringVar(&postProject, "project", "", "Project the work belongs to")
	postAddCmd.Flags().IntVarP(&postMinutes, "minutes", "m", 0, "Minutes spent")
	postAddCmd.Flags().StringVar(&postLink, "link", "", "Link to a PR, commit, or write-up")

	postEditCmd.Flags().StringVar(&postEditContent, "text", "", "New post text")
	postEditCmd.Flags().StringVarP(&postEditCategory, "category", "c", "", categories)
	postEditCmd.Flags().StringVar(&postEditProject, "project", "", "Project the work belongs to")
	postEditCmd.Flags().IntVarP(&postEditMinutes, "minutes", "m", 0, "Minutes spent")
	postEditCmd.Flags().StringVar(&postEditLink, "link", "", "Link to a PR, commit, or write-up")

	postListCmd.Flags().IntVarP(&postLimit, "limit", "n", 10, "How many posts to show")
	postCmd.Flags().IntVarP(&postLimit, "limit", "n", 10, "How many posts to show")
}

func runPostAdd(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	userID, err := s.userID()
	if err != nil {
		return err
	}

	p, agg, err := s.tracker.CreatePost(ctx, activity.NewPost{
		UserID:      userID,
		Content:     strings.Join(args, " "),
		Category:    postCategory,
		Project:     postProject,
		DurationMin: postMinutes,
		LinkURL:     postLink,
	})
	if err != nil && p.ID == "" {
		return err
	}

	ui.Ok(fmt.Sprintf("Logged %s", ui.Muted.Render(p.ID)))
	if err != nil {
		ui.Warn(err.Error())
		ui.Tip("`devlog streak recompute` to retry the streak update.")
		return nil
	}
	ui.Kv(ui.IconFire+" Streak", streakSummary(agg.CurrentStreak, agg.LongestStreak))
	fmt.Println()
	return nil
}

func runPostEdit(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	userID, err := s.userID()
	if err != nil {
		return err
	}

	current, err := s.tracker.Post(ctx, userID, args[0])
	if err != nil {
		return err
	}

	edit := activity.PostEdit{
		Content:     current.Content,
		Category:    current.Category,
		Project:     current.Project,
		DurationMin: current.DurationMin,
		LinkURL:     current.LinkURL,
	}
	flags := cmd.Flags()
	if flags.Changed("text") {
		edit.Content = postEditContent
	}
	if flags.Changed("category") {
		edit.Category = postEditCategory
	}
	if flags.Changed("project") {
		edit.Project = postEditProject
	}
	if flags.Changed("minutes") {
		edit.DurationMin = postEditMinutes
	}
	if flags.Changed("link") {
		edit.LinkURL = postEditLink
	}

	p, err := s.tracker.UpdatePost(ctx, userID, args[0], edit)
	if err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Updated %s", ui.Muted.Render(p.ID)))
	return nil
}

func runPostRm(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	userID, err := s.userID()
	if err != nil {
		return err
	}

	agg, err := s.tracker.DeletePost(ctx, userID, args[0])
	if err != nil {
		return err
	}
	ui.Ok("Deleted " + ui.Muted.Render(args[0]))
	ui.Kv(ui.IconFire+" Streak", streakSummary(agg.CurrentStreak, agg.LongestStreak))
	fmt.Println()
	return nil
}

func runPostList(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	userID, err := s.userID()
	if err != nil {
		return err
	}

	posts, err := s.tracker.Posts(ctx, userID, postLimit)
	if err != nil {
		return err
	}

	if len(posts) == 0 {
		fmt.Println()
		fmt.Println(ui.Muted.Render("  No posts yet."))
		ui.Tip("`devlog post add \"what I built today\"` to write your first one.")
		fmt.Println()
		return nil
	}

	ui.Header(ui.IconLog + "Recent posts")
	loc := s.tracker.Location()
	for _, p := range posts {
		when := p.CreatedAt.In(loc).Format("Jan 02 15:04")
		meta := p.Category
		if p.Project != "" {
			meta += " " + ui.IconDot + " " + p.Project
		}
		if p.DurationMin > 0 {
			meta += fmt.Sprintf(" %s %dm", ui.IconDot, p.DurationMin)
		}
		fmt.Printf("  %s  %s  %s\n", ui.Muted.Render(p.ID), ui.Info.Render(when), firstLine(p.Content))
		fmt.Printf("  %s  %s\n", strings.Repeat(" ", 8), ui.Muted.Render(meta))
	}
	fmt.Println()
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " " + ui.IconArrow
	}
	return s
}
