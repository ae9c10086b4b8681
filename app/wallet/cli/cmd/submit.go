package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/startrail/starregistry/foundation/ledger/database"
	"github.com/startrail/starregistry/foundation/ledger/signature"
)

var (
	url   string
	ra    string
	dec   string
	mag   string
	cen   string
	story string
)

// submitCmd runs the full claim flow: request a challenge, sign it with the
// wallet key and submit the star in one shot.
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Claim a star on the registry",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		submitWithDetails(privateKey)
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	submitCmd.Flags().StringVarP(&ra, "ra", "r", "", "Right ascension of the star.")
	submitCmd.Flags().StringVarP(&dec, "dec", "d", "", "Declination of the star.")
	submitCmd.Flags().StringVarP(&mag, "mag", "m", "", "Apparent magnitude of the star.")
	submitCmd.Flags().StringVarP(&cen, "cen", "c", "", "Constellation reference.")
	submitCmd.Flags().StringVarP(&story, "story", "s", "", "Story to record with the claim.")
}

func submitWithDetails(privateKey *ecdsa.PrivateKey) {
	accountID := database.PublicKeyToAccountID(privateKey.PublicKey)

	message, err := requestChallenge(accountID)
	if err != nil {
		log.Fatal(err)
	}

	sig, err := signature.Sign(message, privateKey)
	if err != nil {
		log.Fatal(err)
	}

	req := struct {
		Address   string        `json:"address"`
		Message   string        `json:"message"`
		Signature string        `json:"signature"`
		Star      database.Star `json:"star"`
	}{
		Address:   string(accountID),
		Message:   message,
		Signature: sig,
		Star: database.Star{
			RA:    ra,
			Dec:   dec,
			Mag:   mag,
			Cen:   cen,
			Story: story,
		},
	}

	data, err := json.Marshal(req)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/star/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}

	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("submit failed: %s: %s", resp.Status, body)
	}

	fmt.Println(string(body))
}
