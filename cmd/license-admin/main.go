package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"license-backoffice/internal/license"
)

func main() {
	fmt.Println("========================================")
	fmt.Println(" License Administration Tool")
	fmt.Println("========================================")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("\nOptions:")
		fmt.Println("  1. Generate single license key")
		fmt.Println("  2. Generate batch license keys")
		fmt.Println("  3. Validate a license key format")
		fmt.Println("  4. Preview expiry dates")
		fmt.Println("  5. Show license type info")
		fmt.Println("  6. Exit")
		fmt.Print("\nSelect option: ")

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		switch input {
		case "1":
			generateSingleKey(reader)
		case "2":
			generateBatchKeys(reader)
		case "3":
			validateKey(reader)
		case "4":
			previewExpiry(reader)
		case "5":
			showLicenseInfo()
		case "6":
			fmt.Println("Goodbye!")
			os.Exit(0)
		default:
			fmt.Println("Invalid option")
		}
	}
}

func readLicenseType(reader *bufio.Reader) (license.Type, bool) {
	fmt.Println("License types:")
	fmt.Println("  1. Permanente           (never expires)")
	fmt.Println("  2. Trial                (expires after the trial days)")
	fmt.Println("  3. Abbonamento mensile  (monthly subscription)")
	fmt.Println("  4. Abbonamento annuale  (yearly subscription)")
	fmt.Print("Select type (1-4): ")

	input, _ := reader.ReadString('\n')
	switch strings.TrimSpace(input) {
	case "1":
		return license.TypePermanente, true
	case "2":
		return license.TypeTrial, true
	case "3":
		return license.TypeAbbonamentoMensile, true
	case "4":
		return license.TypeAbbonamentoAnnuale, true
	}
	fmt.Println("Invalid type")
	return "", false
}

func generateSingleKey(reader *bufio.Reader) {
	fmt.Println("\n--- Generate License Key ---")

	licenseType, ok := readLicenseType(reader)
	if !ok {
		return
	}

	key := license.GenerateKey(licenseType)

	fmt.Println("\n========================================")
	fmt.Printf("  License Type: %s\n", licenseType)
	fmt.Printf("  License Key:  %s\n", key)
	fmt.Printf("  Generated:    %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println("========================================")

	// Optionally save to file
	fmt.Print("\nSave to file? (y/n): ")
	save, _ := reader.ReadString('\n')
	if strings.TrimSpace(strings.ToLower(save)) == "y" {
		filename := fmt.Sprintf("license_%s_%s.txt", licenseType, time.Now().Format("20060102_150405"))
		content := fmt.Sprintf("License Type: %s\nLicense Key: %s\nGenerated: %s\n",
			licenseType, key, time.Now().Format("2006-01-02 15:04:05"))
		os.WriteFile(filename, []byte(content), 0644)
		fmt.Printf("Saved to: %s\n", filename)
	}
}

func generateBatchKeys(reader *bufio.Reader) {
	fmt.Println("\n--- Generate Batch License Keys ---")

	licenseType, ok := readLicenseType(reader)
	if !ok {
		return
	}

	fmt.Print("How many keys to generate? ")
	countInput, _ := reader.ReadString('\n')
	count, err := strconv.Atoi(strings.TrimSpace(countInput))
	if err != nil || count <= 0 || count > 1000 {
		fmt.Println("Count must be between 1 and 1000")
		return
	}

	keys := make([]string, 0, count)
	for i := 0; i < count; i++ {
		keys = append(keys, license.GenerateKey(licenseType))
	}

	fmt.Printf("\nGenerated %d keys:\n", count)
	for _, key := range keys {
		fmt.Printf("  %s\n", key)
	}

	fmt.Print("\nSave to file? (y/n): ")
	save, _ := reader.ReadString('\n')
	if strings.TrimSpace(strings.ToLower(save)) == "y" {
		filename := fmt.Sprintf("licenses_%s_%s.txt", licenseType, time.Now().Format("20060102_150405"))
		os.WriteFile(filename, []byte(strings.Join(keys, "\n")+"\n"), 0644)
		fmt.Printf("Saved to: %s\n", filename)
	}
}

func validateKey(reader *bufio.Reader) {
	fmt.Println("\n--- Validate License Key ---")
	fmt.Print("Enter key: ")

	input, _ := reader.ReadString('\n')
	key := license.NormalizeKey(strings.TrimSpace(input))

	if license.IsValidKeyFormat(key) {
		fmt.Printf("Key %s is well formed\n", key)
	} else {
		fmt.Printf("Key %s does not match XXX-XXXX-XXXX-XXXX\n", key)
	}
}

func previewExpiry(reader *bufio.Reader) {
	fmt.Println("\n--- Preview Expiry Dates ---")
	fmt.Print("Anchor date (yyyy-mm-dd, empty for today): ")

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	anchor := time.Now()
	if input != "" {
		parsed, err := time.Parse("2006-01-02", input)
		if err != nil {
			fmt.Println("Invalid date")
			return
		}
		anchor = parsed
	}

	fmt.Printf("\nExpiry dates anchored to %s:\n", anchor.Format("2006-01-02"))
	for _, t := range []license.Type{
		license.TypePermanente,
		license.TypeTrial,
		license.TypeAbbonamentoMensile,
		license.TypeAbbonamentoAnnuale,
	} {
		expiry := license.ComputeExpiry(string(t), license.DefaultTrialDays, anchor)
		if expiry == nil {
			fmt.Printf("  %-22s no expiry\n", t)
		} else {
			fmt.Printf("  %-22s %s\n", t, expiry.Format("2006-01-02"))
		}
	}
}

func showLicenseInfo() {
	fmt.Println("\n--- License Types ---")
	fmt.Println()
	fmt.Println("permanente:")
	fmt.Println("  Never expires, never renews.")
	fmt.Println()
	fmt.Printf("trial:\n")
	fmt.Printf("  Expires after the trial days (default %d), never renews.\n", license.DefaultTrialDays)
	fmt.Println()
	fmt.Println("abbonamento_mensile:")
	fmt.Println("  One calendar month minus one day from the anchor date.")
	fmt.Println("  Renews automatically while active with renewal enabled.")
	fmt.Println()
	fmt.Println("abbonamento_annuale:")
	fmt.Println("  Twelve calendar months minus one day from the anchor date.")
	fmt.Println("  Renews automatically while active with renewal enabled.")
	fmt.Println()
	fmt.Println("Legacy aliases mensile and annuale behave like the")
	fmt.Println("abbonamento_* types but are not assigned to new licenses.")
}
