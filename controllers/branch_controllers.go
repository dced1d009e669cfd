package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/restopilot/platform/services"
	"github.com/restopilot/platform/utils"
)

type BranchController struct {
	Provisioner *services.BranchProvisioner
}

func NewBranchController(provisioner *services.BranchProvisioner) *BranchController {
	return &BranchController{Provisioner: provisioner}
}

// CreateBranch provisions a child tenant under the parent, optionally with a
// new admin and a catalog clone. The whole operation is atomic.
func (bc *BranchController) CreateBranch(c *gin.Context) {
	parentID, err := strconv.Atoi(c.Param("tenant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req services.BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	branch, err := bc.Provisioner.CreateBranch(uint(parentID), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("Branch %s created under tenant %d", branch.Slug, parentID)

	utils.RespondJSON(c, http.StatusCreated, "Branch created", branch)
}
