// catalogctl is a CLI tool for poking at a running storefront catalog service.
// Each command performs a single request, making it composable for scripts.
//
// Commands:
//
//	catalogctl collection -proxy URL -name flower
//	catalogctl home -proxy URL
//	catalogctl products -proxy URL [-category NAMES] [-search TEXT] [-per-page N]
//	catalogctl categories -proxy URL
//	catalogctl chat -proxy URL -message TEXT
//
// Examples:
//
//	catalogctl collection -name edible -q | xargs -n1 echo
//	catalogctl products -category "edibles,gummies" -per-page 20
//	catalogctl chat -message "something to help me sleep?"
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

var client = &http.Client{Timeout: 60 * time.Second}

// Global flags (apply to all commands)
var (
	proxyURL string
	quiet    bool
	noColor  bool
	verbose  bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "collection":
		runCollection(args)
	case "home":
		runHome(args)
	case "products":
		runProducts(args)
	case "categories":
		runCategories(args)
	case "chat":
		runChat(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `catalogctl - storefront catalog test tool

Usage:
  catalogctl <command> [options]

Commands:
  collection  List one assembled collection
  home        List every collection (home page payload)
  products    Proxy a raw product query
  categories  List store categories
  chat        Ask the concierge a question

Examples:
  # Flower collection, ids only
  catalogctl collection -name flower -q

  # Raw products for named categories
  catalogctl products -category "edibles,gummies" -per-page 20

  # Chat
  catalogctl chat -message "what's good for relaxing?"

Run 'catalogctl <command> -h' for command-specific options.
`)
}

// commonFlags registers the flags every command accepts.
func commonFlags(fs *flag.FlagSet) {
	fs.StringVar(&proxyURL, "proxy", "http://localhost:8080", "Storefront catalog base URL")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output ids or the reply")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
}

func parseFlags(fs *flag.FlagSet, usage string, args []string) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: catalogctl %s\n\nOptions:\n", usage)
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if noColor {
		disableColors()
	}
	proxyURL = strings.TrimSuffix(proxyURL, "/")
}

// =============================================================================
// COLLECTION COMMAND
// =============================================================================

func runCollection(args []string) {
	fs := flag.NewFlagSet("collection", flag.ExitOnError)
	commonFlags(fs)
	var name string
	fs.StringVar(&name, "name", "", "Collection name: flower, vape, wax, edible, moonwater (required)")
	parseFlags(fs, "collection -name NAME [options]", args)

	if name == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("GET", "/api/collections/"+url.PathEscape(name), nil)
	if err != nil {
		fatal("Failed to load collection: %v", err)
	}

	products, _ := resp["products"].([]interface{})
	if quiet {
		for _, p := range products {
			if pm, ok := p.(map[string]interface{}); ok {
				fmt.Println(formatID(pm["id"]))
			}
		}
		return
	}

	printSuccess("Collection %s: %d products", name, len(products))
	printProducts(products)
}

// =============================================================================
// HOME COMMAND
// =============================================================================

func runHome(args []string) {
	fs := flag.NewFlagSet("home", flag.ExitOnError)
	commonFlags(fs)
	parseFlags(fs, "home [options]", args)

	resp, err := doRequest("GET", "/api/collections", nil)
	if err != nil {
		fatal("Failed to load collections: %v", err)
	}

	collections, _ := resp["collections"].(map[string]interface{})
	for _, name := range []string{"flower", "vape", "wax", "edible", "moonwater"} {
		products, _ := collections[name].([]interface{})
		if quiet {
			fmt.Printf("%s\t%d\n", name, len(products))
			continue
		}
		status := colorGreen
		if len(products) == 0 {
			status = colorYellow
		}
		fmt.Printf("  %s%-10s%s %s%d products%s\n", colorBold, name, colorReset, status, len(products), colorReset)
	}
}

// =============================================================================
// PRODUCTS COMMAND
// =============================================================================

func runProducts(args []string) {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	commonFlags(fs)
	var category, search string
	var perPage int
	fs.StringVar(&category, "category", "", "Comma-separated category names")
	fs.StringVar(&search, "search", "", "Free-text search")
	fs.IntVar(&perPage, "per-page", 0, "Page size (1-100)")
	parseFlags(fs, "products [options]", args)

	params := url.Values{}
	if category != "" {
		params.Set("category", category)
	}
	if search != "" {
		params.Set("search", search)
	}
	if perPage > 0 {
		params.Set("per_page", strconv.Itoa(perPage))
	}

	path := "/api/products"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := doRequest("GET", path, nil)
	if err != nil {
		fatal("Failed to list products: %v", err)
	}

	products, _ := resp["products"].([]interface{})
	for _, p := range products {
		pm, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		if quiet {
			fmt.Println(formatID(pm["id"]))
			continue
		}
		fmt.Printf("  %s%s%s %s %s$%v%s\n", colorCyan, formatID(pm["id"]), colorReset, pm["name"], colorGreen, pm["price"], colorReset)
	}
	printSuccess("%d products", len(products))
}

// =============================================================================
// CATEGORIES COMMAND
// =============================================================================

func runCategories(args []string) {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	commonFlags(fs)
	parseFlags(fs, "categories [options]", args)

	resp, err := doRequest("GET", "/api/categories", nil)
	if err != nil {
		fatal("Failed to list categories: %v", err)
	}

	categories, _ := resp["categories"].([]interface{})
	for _, c := range categories {
		cm, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		if quiet {
			fmt.Printf("%s\t%s\n", formatID(cm["id"]), cm["slug"])
			continue
		}
		fmt.Printf("  %s%5s%s %-30v %s(%v)%s\n", colorCyan, formatID(cm["id"]), colorReset, cm["name"], colorGray, cm["count"], colorReset)
	}
	printSuccess("%d categories", len(categories))
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

func runChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	commonFlags(fs)
	var message string
	fs.StringVar(&message, "message", "", "Question for the concierge (required)")
	parseFlags(fs, "chat -message TEXT [options]", args)

	if message == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("POST", "/api/chat", map[string]interface{}{"message": message})
	if err != nil {
		fatal("Chat failed: %v", err)
	}

	reply, _ := resp["message"].(string)
	if quiet {
		fmt.Println(reply)
		return
	}
	fmt.Printf("\n%s%s%s\n", colorBold, reply, colorReset)
}

// =============================================================================
// HTTP
// =============================================================================

func doRequest(method, path string, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	req, err := http.NewRequest(method, proxyURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if verbose {
		printRequest(method, path, reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if verbose {
		printResponse(resp.StatusCode, respBody, duration)
		if cs := resp.Header.Get("Cache-Status"); cs != "" {
			printInfo("Cache-Status: %s", cs)
		}
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response (HTTP %d): %w", resp.StatusCode, err)
	}

	if ok, _ := result["success"].(bool); !ok {
		msg, _ := result["message"].(string)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, msg)
	}

	return result, nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printProducts(products []interface{}) {
	for _, p := range products {
		pm, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		star := " "
		if featured, _ := pm["featured"].(bool); featured {
			star = colorYellow + "★" + colorReset
		}
		unit, _ := pm["potency_unit"].(string)
		fmt.Printf("  %s %s%6s%s %-32v %s$%.2f%s %v/%v %v%s\n",
			star, colorCyan, formatID(pm["id"]), colorReset, pm["title"],
			colorGreen, toFloat(pm["price"]), colorReset,
			pm["category"], pm["mood"], pm["potency"], unit)
	}
}

func printRequest(method, path string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
	if body != nil {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}
	fmt.Println(pretty.String())
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func formatID(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprintf("%v", v)
}

func toFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
