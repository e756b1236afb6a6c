package httpapi

import (
	"mime"
	"net/http"
	"strconv"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.users.Register(r.Context(), req.Email, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "User registered successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
		s.fail(w, r, err)
		return
	}
	token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

func (s *Server) handleVerifyPassword(w http.ResponseWriter, r *http.Request, user string) {
	var req verifyPasswordRequest
	if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.users.VerifyPassword(r.Context(), user, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password verified"})
}

// handleChangePassword requires the current password as well.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, user string) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.users.VerifyPassword(r.Context(), user, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.users.ChangePassword(r.Context(), user, req.NewPassword); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password updated successfully"})
}

func (s *Server) handleGenerateKey(w http.ResponseWriter, r *http.Request, user string) {
	var req generateKeyRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	key, err := s.conns.GenerateKey(r.Context(), user, req.DisplayName)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateKeyResponse{UniqueKey: key})
}

func (s *Server) handleSendRequest(w http.ResponseWriter, r *http.Request, user string) {
	var req sendRequestRequest
	if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.conns.SendRequest(r.Context(), user, req.UniqueKey); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Connection request sent successfully"})
}

func (s *Server) handleAcceptRequest(w http.ResponseWriter, r *http.Request, user string) {
	var req requesterRequest
	if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
		s.fail(w, r, err)
		return
	}
	peer, err := s.conns.AcceptRequest(r.Context(), user, req.RequesterEmail)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acceptResponse{Message: "Connection established successfully", ConnectedTo: peer})
}

func (s *Server) handleRejectRequest(w http.ResponseWriter, r *http.Request, user string) {
	var req requesterRequest
	if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.conns.RejectRequest(r.Context(), user, req.RequesterEmail); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Connection request rejected"})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request, user string) {
	res, err := s.conns.Disconnect(r.Context(), user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, disconnectResponse{
		Message: "Disconnected successfully",
		Peer:    res.Peer,
		Partial: res.Partial,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, user string) {
	st, err := s.conns.GetStatus(r.Context(), user)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := statusResponse{IsConnected: st.IsConnected, PendingRequests: st.PendingRequests}
	if st.ConnectedTo != "" {
		resp.ConnectedTo = &st.ConnectedTo
	}
	if resp.PendingRequests == nil {
		resp.PendingRequests = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShareFile(w http.ResponseWriter, r *http.Request, user string) {
	var req shareRequest
	if err := decodeJSON(w, r, &req, maxShareBody); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.files.Share(r.Context(), user, req.ReceiverEmail, req.Name, req.Content)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, shareResponse{ID: id})
}

func (s *Server) handleListShared(w http.ResponseWriter, r *http.Request, user string) {
	files, err := s.files.ListShared(r.Context(), user)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := listFilesResponse{Files: make([]fileDTO, 0, len(files))}
	for _, f := range files {
		resp.Files = append(resp.Files, toFileDTO(f))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetFile streams the decrypted content as an attachment.
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request, user string) {
	content, err := s.files.Get(r.Context(), user, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Length", strconv.Itoa(len(content.Data)))
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": content.File.Name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content.Data)
}

func (s *Server) handleFileURL(w http.ResponseWriter, r *http.Request, user string) {
	url, err := s.files.PresignedURL(r.Context(), user, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, urlResponse{URL: url})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request, user string) {
	if err := s.files.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "File deleted successfully"})
}
