package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"typedhash/internal/common"
	"typedhash/internal/eip712"
	"typedhash/internal/manager"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
	"github.com/holiman/uint256"
)

func (s *APIServer) RegisterRoutes() http.Handler {
	router := gin.New()

	// Register routes
	router.GET("/", s.DefaultHandler)

	router.POST("/typed-data/v1.0/hash", s.HashTypedData)
	router.GET("/typed-data/v1.0/message/:digest", s.GetMessage)
	router.GET("/typed-data/v1.0/domain/separator", s.GetDomainSeparator)

	// Wrap the router with CORS middleware
	return s.corsMiddleware(router)
}

func (s *APIServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

var decoder = schema.NewDecoder()

// HashTypedData canonicalizes a typed-data message, computes its signable
// digest, stores the entry for later lookup and broadcasts the digest to
// websocket subscribers.
func (s *APIServer) HashTypedData(c *gin.Context) {
	body := c.Request.Body
	defer body.Close()

	wire := eip712.TypedMessage{}
	if err := json.NewDecoder(body).Decode(&wire); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid typed-data payload"})
		s.logger.Printf("Failed to decode typed-data payload: %v", err)
		return
	}

	message, domain, err := eip712.FromMessage(&wire)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		s.logger.Printf("Failed to reconstruct typed-data message: %v", err)
		return
	}

	digest, err := message.SignableHash(domain)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		s.logger.Printf("Failed to compute signable digest: %v", err)
		return
	}

	encodeType, err := message.Def().EncodeType()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	domainHash, err := domain.HashStruct()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	messageHash, err := message.HashStruct()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := &manager.Entry{
		EntryID:     uuid.New(),
		Digest:      digest,
		PrimaryType: wire.PrimaryType,
		Message:     &wire,
		ReceivedAt:  time.Now(),
	}

	if err := s.manager.SetEntry(entry); err != nil {
		s.logger.Printf("Error storing entry: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store entry"})
		return
	}

	if err := s.manager.HandleDigestEvent(entry); err != nil {
		s.logger.Printf("Error broadcasting digest event: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to broadcast digest"})
		return
	}

	s.logger.Printf("Hashed %s message, digest: %s", wire.PrimaryType, digest.Hex())

	c.JSON(http.StatusOK, common.HashResponse{
		EntryID:     entry.EntryID,
		PrimaryType: wire.PrimaryType,
		EncodeType:  encodeType,
		DomainHash:  domainHash.Hex(),
		MessageHash: messageHash.Hex(),
		Digest:      digest.Hex(),
	})
}

// GetMessage returns the stored typed-data message for a digest.
func (s *APIServer) GetMessage(c *gin.Context) {
	digest := c.Param("digest")
	if digest == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Digest is required"})
		return
	}
	if !strings.HasPrefix(digest, "0x") {
		digest = "0x" + digest
	}
	digest = strings.ToLower(digest)

	entry, err := s.manager.GetEntry(digest)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entryId":     entry.EntryID,
		"digest":      entry.Digest.Hex(),
		"primaryType": entry.PrimaryType,
		"receivedAt":  entry.ReceivedAt.Format(time.RFC3339),
		"message":     entry.Message,
	})
}

// GetDomainSeparator builds a domain from the query parameters and returns
// its struct hash. Omitted parameters are left out of the domain schema.
func (s *APIServer) GetDomainSeparator(c *gin.Context) {
	query := common.DomainQuery{}
	if err := decoder.Decode(&query, c.Request.URL.Query()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	params := eip712.DomainParams{}
	if query.Name != "" {
		params.Name = &query.Name
	}
	if query.Version != "" {
		params.Version = &query.Version
	}
	if query.ChainID != "" {
		chainID, err := parseChainID(query.ChainID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chainId"})
			return
		}
		params.ChainID = chainID
	}
	if query.VerifyingContract != "" {
		if !ethcommon.IsHexAddress(query.VerifyingContract) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verifyingContract"})
			return
		}
		addr := ethcommon.HexToAddress(query.VerifyingContract)
		params.VerifyingContract = &addr
	}
	if query.Salt != "" {
		salt, err := hex.DecodeString(strings.TrimPrefix(query.Salt, "0x"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid salt"})
			return
		}
		params.Salt = salt
	}

	domain, err := eip712.MakeDomain(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	encodeType, err := domain.Def().EncodeType()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	domainHash, err := domain.HashStruct()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, common.DomainResponse{
		EncodeType: encodeType,
		DomainHash: domainHash.Hex(),
	})
}

func parseChainID(s string) (*uint256.Int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return uint256.FromHex(s)
	}
	return uint256.FromDecimal(s)
}

func (s *APIServer) DefaultHandler(c *gin.Context) {
	msg := c.Query("msg")
	if msg == "" {
		msg = "Hello, World!"
	}

	s.manager.Broadcast([]byte(msg))
	c.String(http.StatusOK, "Message broadcasted: %s", msg)
}
