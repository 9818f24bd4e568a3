package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	apiclient "github.com/YarinDev/recipe-app-api/pkg/api/client"
)

const defaultAPIBase = "http://localhost:8000"

type cliConfig struct {
	APIBaseURL  string `json:"api_base_url"`
	AccessToken string `json:"access_token"`
}

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "signup":
		err = commandSignup(args)
	case "login":
		err = commandLogin(args)
	case "me":
		err = commandMe(args)
	case "recipes":
		err = commandRecipes(args)
	case "tags":
		err = commandAttributes("tags", args)
	case "ingredients":
		err = commandAttributes("ingredients", args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func readSecret(flagValue string) (string, error) {
	if secret := strings.TrimSpace(flagValue); secret != "" {
		return secret, nil
	}
	fmt.Print("Password: ")
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(bytes), nil
}

func commandSignup(args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	name := fs.String("name", "", "Display name")
	apiBase := fs.String("api", "", "API base URL (default "+defaultAPIBase+")")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := readSecret(*password)
	if err != nil {
		return err
	}

	cfg, client, err := clientFor(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	user, err := client.CreateUser(ctx, *email, secret, *name)
	if err != nil {
		return err
	}
	tokens, err := client.Token(ctx, *email, secret)
	if err != nil {
		return err
	}
	cfg.AccessToken = tokens.Token
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("account created: %s\n", user.Email)
	return nil
}

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default "+defaultAPIBase+")")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := readSecret(*password)
	if err != nil {
		return err
	}

	cfg, client, err := clientFor(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	tokens, err := client.Token(ctx, *email, secret)
	if err != nil {
		return err
	}
	cfg.AccessToken = tokens.Token
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("login successful")
	return nil
}

func commandMe(args []string) error {
	fs := flag.NewFlagSet("me", flag.ExitOnError)
	fs.Parse(args)

	client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	user, err := client.Me(ctx, token)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\n", user.Email, user.Name)
	return nil
}

func commandRecipes(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: recipectl recipes [list|show|create|delete|upload]")
	}
	sub := args[0]
	switch sub {
	case "list":
		return recipesList(args[1:])
	case "show":
		return recipesShow(args[1:])
	case "create":
		return recipesCreate(args[1:])
	case "delete":
		return recipesDelete(args[1:])
	case "upload":
		return recipesUpload(args[1:])
	default:
		return fmt.Errorf("unknown recipes command: %s", sub)
	}
}

func recipesList(args []string) error {
	fs := flag.NewFlagSet("recipes list", flag.ExitOnError)
	tags := fs.String("tags", "", "Comma separated tag ids")
	ingredients := fs.String("ingredients", "", "Comma separated ingredient ids")
	fs.Parse(args)

	client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	recipes, err := client.ListRecipes(ctx, token, apiclient.RecipeFilter{
		Tags:        splitList(*tags),
		Ingredients: splitList(*ingredients),
	})
	if err != nil {
		return err
	}
	for _, rec := range recipes {
		fmt.Printf("%s\t%s\t%dmin\t%s\n", rec.ID, rec.Title, rec.TimeMinutes, rec.Price)
	}
	return nil
}

func recipesShow(args []string) error {
	fs := flag.NewFlagSet("recipes show", flag.ExitOnError)
	recipeID := fs.String("recipe", "", "Recipe identifier")
	fs.Parse(args)
	if strings.TrimSpace(*recipeID) == "" {
		return errors.New("--recipe is required")
	}

	client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rec, err := client.GetRecipe(ctx, token, *recipeID)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", rec.Title, rec.ID)
	fmt.Printf("time: %d min\tprice: %s\n", rec.TimeMinutes, rec.Price)
	if rec.Link != "" {
		fmt.Printf("link: %s\n", rec.Link)
	}
	if rec.Image != nil {
		fmt.Printf("image: %s\n", *rec.Image)
	}
	fmt.Printf("tags: %s\n", attributeNames(rec.Tags))
	fmt.Printf("ingredients: %s\n", attributeNames(rec.Ingredients))
	if rec.Description != "" {
		fmt.Printf("\n%s\n", rec.Description)
	}
	return nil
}

func recipesCreate(args []string) error {
	fs := flag.NewFlagSet("recipes create", flag.ExitOnError)
	title := fs.String("title", "", "Recipe title")
	minutes := fs.Int("time", 0, "Preparation time in minutes")
	price := fs.String("price", "", "Price, e.g. 5.50")
	link := fs.String("link", "", "Optional external link")
	description := fs.String("description", "", "Optional description")
	tags := fs.String("tags", "", "Comma separated tag names")
	ingredients := fs.String("ingredients", "", "Comma separated ingredient names")
	fs.Parse(args)

	if strings.TrimSpace(*title) == "" {
		return errors.New("--title is required")
	}
	if strings.TrimSpace(*price) == "" {
		return errors.New("--price is required")
	}

	client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rec, err := client.CreateRecipe(ctx, token, apiclient.CreateRecipeInput{
		Title:       *title,
		Description: *description,
		TimeMinutes: *minutes,
		Price:       strings.TrimSpace(*price),
		Link:        *link,
		Tags:        namedAttributes(*tags),
		Ingredients: namedAttributes(*ingredients),
	})
	if err != nil {
		return err
	}
	fmt.Printf("recipe created: %s (%s)\n", rec.ID, rec.Title)
	return nil
}

func recipesDelete(args []string) error {
	fs := flag.NewFlagSet("recipes delete", flag.ExitOnError)
	recipeID := fs.String("recipe", "", "Recipe identifier")
	fs.Parse(args)
	if strings.TrimSpace(*recipeID) == "" {
		return errors.New("--recipe is required")
	}

	client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.DeleteRecipe(ctx, token, *recipeID); err != nil {
		return err
	}
	fmt.Println("recipe deleted")
	return nil
}

func recipesUpload(args []string) error {
	fs := flag.NewFlagSet("recipes upload", flag.ExitOnError)
	recipeID := fs.String("recipe", "", "Recipe identifier")
	path := fs.String("file", "", "Image file to upload")
	fs.Parse(args)
	if strings.TrimSpace(*recipeID) == "" {
		return errors.New("--recipe is required")
	}
	if strings.TrimSpace(*path) == "" {
		return errors.New("--file is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	url, err := client.UploadImage(ctx, token, *recipeID, *path, f)
	if err != nil {
		return err
	}
	fmt.Printf("image uploaded: %s\n", url)
	return nil
}

func commandAttributes(kind string, args []string) error {
	fs := flag.NewFlagSet(kind, flag.ExitOnError)
	assigned := fs.Bool("assigned", false, "Only show entries used by a recipe")
	fs.Parse(args)

	client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var attrs []apiclient.Attribute
	if kind == "tags" {
		attrs, err = client.ListTags(ctx, token, *assigned)
	} else {
		attrs, err = client.ListIngredients(ctx, token, *assigned)
	}
	if err != nil {
		return err
	}
	for _, attr := range attrs {
		fmt.Printf("%s\t%s\n", attr.ID, attr.Name)
	}
	return nil
}

func clientFor(apiBase string) (cliConfig, *apiclient.Client, error) {
	cfg, _ := loadConfig()
	if strings.TrimSpace(apiBase) != "" {
		cfg.APIBaseURL = apiBase
	}
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return cliConfig{}, nil, err
	}
	return cfg, client, nil
}

func authedClient() (*apiclient.Client, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, "", errors.New("please login first using 'recipectl login'")
	}
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return nil, "", err
	}
	return client, token, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func namedAttributes(raw string) []apiclient.Attribute {
	names := splitList(raw)
	if len(names) == 0 {
		return nil
	}
	attrs := make([]apiclient.Attribute, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, apiclient.Attribute{Name: name})
	}
	return attrs
}

func attributeNames(attrs []apiclient.Attribute) string {
	if len(attrs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		names = append(names, attr.Name)
	}
	return strings.Join(names, ", ")
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{APIBaseURL: defaultAPIBase}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, err
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBase
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func configPath() (string, error) {
	base, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, ".recipectl", "config.json"), nil
}

func printUsage() {
	fmt.Printf("recipectl %s\n\n", buildVersion)
	fmt.Print(`Usage:
	recipectl signup --email user@example.com [--password secret] [--name "Jo Cook"] [--api http://localhost:8000]
	recipectl login --email user@example.com [--password secret] [--api http://localhost:8000]
	recipectl me
	recipectl recipes list [--tags id,id] [--ingredients id,id]
	recipectl recipes show --recipe <recipe-id>
	recipectl recipes create --title <title> --time <minutes> --price <amount> [--link url] [--description text] [--tags a,b] [--ingredients a,b]
	recipectl recipes delete --recipe <recipe-id>
	recipectl recipes upload --recipe <recipe-id> --file <path>
	recipectl tags [--assigned]
	recipectl ingredients [--assigned]
	recipectl version
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
