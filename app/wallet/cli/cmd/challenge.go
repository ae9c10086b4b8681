package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/startrail/starregistry/foundation/ledger/database"
)

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Request an ownership challenge for your account",
	Run:   challengeRun,
}

func init() {
	rootCmd.AddCommand(challengeCmd)
	challengeCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

func challengeRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := database.PublicKeyToAccountID(privateKey.PublicKey)

	message, err := requestChallenge(accountID)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(message)
}

// requestChallenge asks the node for a fresh challenge message for the
// specified account. The message must be signed and submitted inside the
// node's validity window.
func requestChallenge(accountID database.AccountID) (string, error) {
	req := struct {
		Address string `json:"address"`
	}{
		Address: string(accountID),
	}

	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/challenge/request", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("challenge request failed: %s", resp.Status)
	}

	var chal struct {
		Address string `json:"address"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chal); err != nil {
		return "", err
	}

	return chal.Message, nil
}
